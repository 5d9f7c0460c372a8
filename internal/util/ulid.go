package util

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewEventID generates a ULID for deliveries that arrive without an event_id.
func NewEventID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// EventIDOr returns id when set, otherwise a fresh ULID.
func EventIDOr(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return NewEventID()
}
