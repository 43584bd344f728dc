package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

const (
	MaxSlugLength       = 64
	MaxRoomNameLength   = 100
	MaxSenderNameLength = 50
	MaxContentLength    = 4000
)

func ValidateRoom(name, slug string) ValidationErrors {
	errs := make(ValidationErrors)

	name = strings.TrimSpace(name)
	if name == "" {
		errs.Add("name", "Room name is required")
	} else if utf8.RuneCountInString(name) > MaxRoomNameLength {
		errs.Add("name", "Room name is too long")
	}

	validateSlug(slug, errs)

	return errs
}

func ValidateSlug(slug string) ValidationErrors {
	errs := make(ValidationErrors)
	validateSlug(slug, errs)
	return errs
}

func ValidateMessage(senderName, content string, hasAttachment bool) ValidationErrors {
	errs := make(ValidationErrors)

	senderName = strings.TrimSpace(senderName)
	if senderName == "" {
		errs.Add("sender_name", "Sender name is required")
	} else if utf8.RuneCountInString(senderName) > MaxSenderNameLength {
		errs.Add("sender_name", "Sender name is too long")
	}

	content = strings.TrimSpace(content)
	if content == "" && !hasAttachment {
		errs.Add("content", "Message needs text or an attachment")
	} else if utf8.RuneCountInString(content) > MaxContentLength {
		errs.Add("content", "Message is too long")
	}

	return errs
}

func validateSlug(slug string, errs ValidationErrors) {
	switch {
	case slug == "":
		errs.Add("slug", "Slug is required")
	case len(slug) > MaxSlugLength:
		errs.Add("slug", "Slug is too long")
	case !slugRegex.MatchString(slug):
		errs.Add("slug", "Slug can only contain lowercase letters, numbers and dashes")
	}
}
