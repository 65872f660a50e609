// Package profile manages user profile documents and profile images.
package profile

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/VehanRajintha/ChatX/internal/apperr"
	"github.com/VehanRajintha/ChatX/internal/auth"
	"github.com/VehanRajintha/ChatX/internal/models"
	"github.com/VehanRajintha/ChatX/internal/store"
)

// Profile photos are stored square, capped at this edge length.
const photoEdge = 512

// BlobStore is the slice of the blob backend the service needs.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type Service struct {
	users store.UserStore
	blobs BlobStore
	log   *zap.SugaredLogger
}

func NewService(users store.UserStore, blobs BlobStore, log *zap.SugaredLogger) *Service {
	return &Service{users: users, blobs: blobs, log: log}
}

// Get looks up one profile.
func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	return s.users.Get(ctx, id)
}

// Discover lists the profiles the caller may start a conversation
// with: everyone except the caller and users who marked their profile
// private.
func (s *Service) Discover(ctx context.Context, sess auth.Session) ([]models.User, error) {
	if _, err := sess.Require(); err != nil {
		return nil, err
	}
	all, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.User{}
	for _, u := range all {
		if u.ID == sess.UserID || u.IsPrivate {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// EnsureUser merge-upserts the caller's profile document on sign-in.
// Display name falls back to the email local part, the photo to a
// generated avatar.
func (s *Service) EnsureUser(ctx context.Context, sess auth.Session, email, displayName, photoURL string) (*models.User, error) {
	if _, err := sess.Require(); err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = emailLocalPart(email)
	}
	if photoURL == "" {
		photoURL = DefaultAvatarURL(displayName, email)
	}
	now := time.Now().UTC()
	u := &models.User{
		ID:          sess.UserID,
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		Status:      "online",
		LastSeen:    &now,
		CreatedAt:   now,
	}
	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update mutates the caller's own profile fields, optionally replacing
// the profile image.
type Update struct {
	DisplayName *string
	IsPrivate   *bool
	Image       []byte
}

// UpdateProfile applies the update and returns the new photo URL when
// an image was uploaded.
func (s *Service) UpdateProfile(ctx context.Context, sess auth.Session, upd Update) (string, error) {
	if _, err := sess.Require(); err != nil {
		return "", err
	}
	fields := map[string]any{}
	if upd.DisplayName != nil {
		fields["display_name"] = *upd.DisplayName
	}
	if upd.IsPrivate != nil {
		fields["is_private"] = *upd.IsPrivate
	}
	photoURL := ""
	if len(upd.Image) > 0 {
		data, err := normalizeImage(upd.Image)
		if err != nil {
			return "", err
		}
		url, err := s.blobs.Upload(ctx, "profileImages/"+sess.UserID, "image/jpeg", data)
		if err != nil {
			return "", err
		}
		photoURL = url
		fields["photo_url"] = url
	}
	if err := s.users.UpdateFields(ctx, sess.UserID, fields); err != nil {
		return "", err
	}
	return photoURL, nil
}

// normalizeImage re-encodes the upload as a bounded JPEG.
func normalizeImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", apperr.ErrPersistence, err)
	}
	img = imaging.Fit(img, photoEdge, photoEdge, imaging.Lanczos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("%w: encode image: %v", apperr.ErrPersistence, err)
	}
	return buf.Bytes(), nil
}

func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
