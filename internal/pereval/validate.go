package pereval

import (
	"net/mail"
	"strconv"
	"strings"
)

// Validate checks the submission structurally before it reaches the store.
// The service re-parses numbers, timestamps and image payloads on its own;
// this layer exists to reject malformed input with a field-naming message.
func (r SubmitRequest) Validate() error {
	if strings.TrimSpace(r.BeautyTitle) == "" {
		return newValidationError("beauty_title is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return newValidationError("title is required")
	}
	if strings.TrimSpace(r.AddTime) == "" {
		return newValidationError("add_time is required")
	}
	if _, err := parseAddTime(strings.TrimSpace(r.AddTime)); err != nil {
		return err
	}

	// Bare addresses only: display-name forms would leak into the stored
	// lookup key.
	email := strings.TrimSpace(r.User.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return newValidationError("user.email is not a valid email address")
	}
	if strings.TrimSpace(r.User.Fam) == "" {
		return newValidationError("user.fam is required")
	}
	if strings.TrimSpace(r.User.Name) == "" {
		return newValidationError("user.name is required")
	}
	if strings.TrimSpace(r.User.Phone) == "" {
		return newValidationError("user.phone is required")
	}

	if _, err := strconv.ParseFloat(strings.TrimSpace(r.Coords.Latitude), 64); err != nil {
		return newValidationError("coords.latitude must be a number")
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(r.Coords.Longitude), 64); err != nil {
		return newValidationError("coords.longitude must be a number")
	}
	if _, err := strconv.Atoi(strings.TrimSpace(r.Coords.Height)); err != nil {
		return newValidationError("coords.height must be an integer")
	}

	if len(r.Images) == 0 {
		return newValidationError("images must not be empty")
	}
	for i, img := range r.Images {
		if strings.TrimSpace(img.Title) == "" {
			return newValidationError("images[%d].title is required", i)
		}
		if img.Data == "" {
			return newValidationError("images[%d].data is required", i)
		}
	}
	return nil
}
