package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/VehanRajintha/ChatX/internal/apperr"
)

func TestHTTPStatusByErrorClass(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.ErrUnauthenticated, fiber.StatusUnauthorized},
		// Caller input problems must not surface as upstream failures.
		{fmt.Errorf("%w: invalid counterpart", apperr.ErrInvalidArgument), fiber.StatusBadRequest},
		{fmt.Errorf("user x: %w", apperr.ErrNotFound), fiber.StatusNotFound},
		{apperr.ErrPersistence, fiber.StatusBadGateway},
		{errors.New("mystery"), fiber.StatusBadGateway},
	}
	for _, c := range cases {
		require.Equal(t, c.want, httpStatus(c.err))
	}
}
