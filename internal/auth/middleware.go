package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionLocal is the ctx-locals key the middleware stores the session
// under; WebSocket handlers read it off the upgraded connection.
const SessionLocal = "chatx_session"

// Middleware authenticates the request and stores the session in ctx
// locals.
func Middleware(v *Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get("Authorization")
		token := ""
		if strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		} else if q := c.Query("token"); q != "" {
			// WebSocket clients cannot set headers from the browser.
			token = q
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing auth"})
		}
		sess, err := v.Verify(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals(SessionLocal, sess)
		return c.Next()
	}
}

// SessionFrom returns the session stored by Middleware.
func SessionFrom(c *fiber.Ctx) (Session, bool) {
	sess, ok := c.Locals(SessionLocal).(Session)
	return sess, ok && sess.Valid()
}
