package drive

import (
	"errors"
	"html"
	"regexp"
	"strings"

	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/domain/models/drive"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/microcosm-cc/bluemonday"
)

// descriptionPolicy strips every tag; descriptions are plain text
var descriptionPolicy = bluemonday.StrictPolicy()

var noSlash = regexp.MustCompile(`^[^/]+$`)

var nameRules = []validation.Rule{
	validation.Required,
	validation.RuneLength(1, config.MaxNodeNameLength),
	validation.Match(noSlash).Error("name cannot contain slashes"),
	validation.NotIn(".", "..").Error("name cannot be . or .."),
}

// normalizeName trims and validates a folder or file name
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := validation.Validate(name, nameRules...); err != nil {
		return "", validationFailed("name", err)
	}
	return name, nil
}

// normalizeTags trims, drops empties and deduplicates while keeping first-seen order
func normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	err := validation.Validate(out,
		validation.Length(0, config.MaxTags),
		validation.Each(validation.RuneLength(1, config.MaxTagLength)),
	)
	if err != nil {
		return nil, validationFailed("tags", err)
	}
	return out, nil
}

// normalizeDescription removes markup and bounds the length of a description
func normalizeDescription(description string) (string, error) {
	description = strings.TrimSpace(html.UnescapeString(descriptionPolicy.Sanitize(description)))
	if err := validation.Validate(description, validation.RuneLength(0, config.MaxDescriptionLength)); err != nil {
		return "", validationFailed("description", err)
	}
	return description, nil
}

func validateGrants(grants []drive.Grant) error {
	seen := make(map[string]struct{}, len(grants))
	for _, g := range grants {
		if strings.TrimSpace(g.UserID) == "" {
			return domain.NewValidationError("allowed_users: user_id is required")
		}
		if !g.Permission.Valid() {
			return domain.NewValidationError("allowed_users: unknown permission %q for %s", g.Permission, g.UserID)
		}
		if _, dup := seen[g.UserID]; dup {
			return domain.NewValidationError("allowed_users: duplicate grant for %s", g.UserID)
		}
		seen[g.UserID] = struct{}{}
	}
	return nil
}

func validateListOptions(opts *drive.ListOptions) error {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return domain.NewValidationError("%v", err)
	}
	return nil
}

func validateSize(size int64) error {
	if size < 0 {
		return domain.NewValidationError("size must not be negative")
	}
	return nil
}

func validationFailed(field string, err error) error {
	var vErr validation.Error
	if errors.As(err, &vErr) {
		return domain.NewValidationError("%s: %s", field, vErr.Error())
	}
	return domain.NewValidationError("%s: %v", field, err)
}
