package intake

import (
	"strings"

	"facility-intake-backend/internal/types"
)

// ValidationError is a form problem caught before anything is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrNoContactMethod = &ValidationError{Field: "contactMethods", Message: "Please select at least one way for us to contact you."}
	ErrNoService       = &ValidationError{Field: "services", Message: "Please select at least one service or describe what you need."}
	ErrNoUnitInfo      = &ValidationError{Field: "unitInfo", Message: "Please describe the unit or area that needs work."}
	ErrNoTimeline      = &ValidationError{Field: "timeline", Message: "Please choose a timeline."}
	ErrNoContactName   = &ValidationError{Field: "contactName", Message: "Please enter your name."}
	ErrNoEmail         = &ValidationError{Field: "email", Message: "Please enter your email address."}
	ErrNoAccessCode    = &ValidationError{Field: "accessCode", Message: "Please enter your access code."}
	ErrNoProperty      = &ValidationError{Field: "propertyName", Message: "Please choose a property."}
)

// Validate checks a survey in a fixed order and reports only the first problem.
func Validate(p types.SurveyPayload) error {
	if !anyNonBlank(p.ContactMethods) {
		return ErrNoContactMethod
	}
	if !anyNonBlank(p.Services) && strings.TrimSpace(p.OtherService) == "" {
		return ErrNoService
	}
	if strings.TrimSpace(p.UnitInfo) == "" {
		return ErrNoUnitInfo
	}
	if strings.TrimSpace(p.Timeline) == "" {
		return ErrNoTimeline
	}
	if strings.TrimSpace(p.ContactName) == "" {
		return ErrNoContactName
	}
	if strings.TrimSpace(p.Email) == "" {
		return ErrNoEmail
	}
	return nil
}

func anyNonBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
