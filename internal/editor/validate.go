package editor

import (
	"strings"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

// Validator checks a draft before any network call.
type Validator[T any] func(T) error

func ValidateArticle(a domain.Article) error {
	if strings.TrimSpace(a.Title) == "" {
		return errors.NewValidationError("title is required", "title", a.Title)
	}
	if IsEmptyHTML(a.Content) {
		return errors.NewValidationError("content is required", "content", a.Content)
	}
	return nil
}

func ValidateMember(m domain.Member) error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.NewValidationError("name is required", "name", m.Name)
	}
	if strings.TrimSpace(m.Position) == "" {
		return errors.NewValidationError("position is required", "position", m.Position)
	}
	return nil
}

func ValidateEvent(e domain.Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return errors.NewValidationError("title is required", "title", e.Title)
	}
	if strings.TrimSpace(e.Description) == "" {
		return errors.NewValidationError("description is required", "description", e.Description)
	}
	if e.EventDate.IsZero() {
		return errors.NewValidationError("event date is required", "eventDate", nil)
	}
	return nil
}
