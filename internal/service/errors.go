package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/vbonduro/beautytracker/internal/store"
	"github.com/vbonduro/beautytracker/internal/vision"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	// ErrMalformedResponse is returned when the vision model's answer
	// contains a product list that cannot be decoded.
	ErrMalformedResponse = vision.ErrMalformedResponse
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUnauthorized
	}
	return nil
}

// translate maps store sentinels onto service sentinels so callers only
// need to know about this package's errors.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFound(what)
	case errors.Is(err, store.ErrOrderMismatch):
		return invalidf("%v", err)
	default:
		return err
	}
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// userKeyPrefix builds an object storage prefix for userID under dir.
func userKeyPrefix(dir, userID string) string {
	return dir + "/" + unsafeKeyChars.ReplaceAllString(userID, "_")
}
