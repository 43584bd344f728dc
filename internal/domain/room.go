package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultRoomSlug is the room every client joins unless told otherwise.
const DefaultRoomSlug = "public"

type Room struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultRoomName is the display name given to a room created on first use.
func DefaultRoomName(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return slug
	}
	return strings.Join(words, " ") + " Chat"
}

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multiDash       = regexp.MustCompile(`-+`)
)

// Slugify lower-cases s and collapses everything but letters and digits into
// single dashes.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multiDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return s
}
