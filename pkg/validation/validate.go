package validation

import (
	"errors"
	"fmt"
	"strings"

	"snapfeed/pkg/models"
)

// MissingFields returns the names of fields whose values are empty, in the
// order given. Handlers check this before touching storage so an invalid
// request never has side effects.
func MissingFields(fields []string, values []string) []string {
	var out []string
	for i, f := range fields {
		if i >= len(values) || strings.TrimSpace(values[i]) == "" {
			out = append(out, f)
		}
	}
	return out
}

// ValidateContent checks the schema constraints on an upload before it is
// written: image id, payload and timestamp must be present, and the type
// must be one of the accepted enum values.
func ValidateContent(c models.ContentItem) error {
	var errs []string
	if c.ImageID == "" {
		errs = append(errs, "imageId is required")
	}
	if c.Image == "" {
		errs = append(errs, "image is required")
	}
	if c.Timestamp == 0 {
		errs = append(errs, "timestamp is required")
	}
	if c.Type != models.TypePost && c.Type != models.TypeStory {
		errs = append(errs, fmt.Sprintf("invalid type %q: must be %q or %q", c.Type, models.TypePost, models.TypeStory))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
