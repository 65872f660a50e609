package api

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/VehanRajintha/ChatX/internal/apperr"
	"github.com/VehanRajintha/ChatX/internal/auth"
	"github.com/VehanRajintha/ChatX/internal/profile"
)

func (s *Server) requestCtx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), s.cfg.RequestTimeout)
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperr.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusBadGateway
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(httpStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) ensureUser(c *fiber.Ctx) error {
	sess, ok := auth.SessionFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var body struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		PhotoURL    string `json:"photo_url"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.ErrBadRequest
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	u, err := s.profiles.EnsureUser(ctx, sess, body.Email, body.DisplayName, body.PhotoURL)
	if err != nil {
		s.log.Errorw("ensure user", "user", sess.UserID, "err", err)
		return fail(c, err)
	}
	return c.JSON(u)
}

func (s *Server) resolveConversation(c *fiber.Ctx) error {
	sess, ok := auth.SessionFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var body struct {
		OtherUserID string `json:"other_user_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.ErrBadRequest
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	id, err := s.lifecycle.ResolveOrCreate(ctx, sess, body.OtherUserID)
	if err != nil {
		s.log.Errorw("resolve conversation", "user", sess.UserID, "err", err)
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"conversation_id": id})
}

func (s *Server) listUsers(c *fiber.Ctx) error {
	sess, ok := auth.SessionFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	users, err := s.profiles.Discover(ctx, sess)
	if err != nil {
		s.log.Errorw("list users", "user", sess.UserID, "err", err)
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

func (s *Server) getUser(c *fiber.Ctx) error {
	if _, ok := auth.SessionFrom(c); !ok {
		return fiber.ErrUnauthorized
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	u, err := s.profiles.Get(ctx, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	online, err := s.presence.IsOnline(ctx, u.ID)
	if err != nil {
		s.log.Warnw("presence lookup", "user", u.ID, "err", err)
	}
	return c.JSON(fiber.Map{"user": u, "online": online})
}

func (s *Server) updateProfile(c *fiber.Ctx) error {
	sess, ok := auth.SessionFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var body struct {
		DisplayName *string `json:"display_name"`
		IsPrivate   *bool   `json:"is_private"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.ErrBadRequest
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	_, err := s.profiles.UpdateProfile(ctx, sess, profile.Update{
		DisplayName: body.DisplayName,
		IsPrivate:   body.IsPrivate,
	})
	if err != nil {
		s.log.Errorw("update profile", "user", sess.UserID, "err", err)
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

func (s *Server) uploadPhoto(c *fiber.Ctx) error {
	sess, ok := auth.SessionFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		return fiber.ErrBadRequest
	}
	f, err := fh.Open()
	if err != nil {
		return fiber.ErrBadRequest
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.ErrBadRequest
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	url, err := s.profiles.UpdateProfile(ctx, sess, profile.Update{Image: data})
	if err != nil {
		s.log.Errorw("upload photo", "user", sess.UserID, "err", err)
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"photo_url": url})
}
