package service

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/punktual/backend/internal/model"
)

// formSnapshot bundles the two form halves for a single validator pass.
type formSnapshot struct {
	Event  model.EventData
	Button model.ButtonData
}

// unmetMessages maps struct fields to the user-facing requirement wording.
var unmetMessages = map[string]string{
	"Title":             "Event title",
	"StartDate":         "Start date",
	"StartTime":         "Start time",
	"EndDate":           "End date",
	"EndTime":           "End time",
	"SelectedPlatforms": "At least one calendar platform",
}

var (
	formValidator *validator.Validate
	validatorOnce sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		formValidator = validator.New(validator.WithRequiredStructEnabled())

		_ = formValidator.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			if fl.Field().Kind() != reflect.String {
				return false
			}
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return formValidator
}

// CheckCompleteness reports whether the form holds enough information to
// generate a usable button, plus the list of unmet requirements. It is purely
// advisory feedback and never blocks data capture.
func CheckCompleteness(event model.EventData, button model.ButtonData) model.StatusResponse {
	missing := []string{}

	err := getValidator().Struct(formSnapshot{Event: event, Button: button})
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if msg, known := unmetMessages[fe.StructField()]; known {
					missing = append(missing, msg)
				}
			}
		}
	}

	// Ordering is part of usability, not just presence.
	if start, serr := event.StartAt(); serr == nil {
		if end, eerr := event.EndAt(); eerr == nil && end.Before(start) {
			missing = append(missing, "End must not precede start")
		}
	}

	return model.StatusResponse{
		Complete: len(missing) == 0,
		Missing:  missing,
	}
}
