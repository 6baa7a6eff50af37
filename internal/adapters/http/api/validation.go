package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

type searchRequest struct {
	Query string `validate:"required,max=100"`
}

type gameRequest struct {
	GamePk int `validate:"gt=0"`
}

type gamePitchesRequest struct {
	GamePk    int `validate:"gt=0"`
	PitcherID int `validate:"gt=0"`
}

type statcastRequest struct {
	PitcherID int    `validate:"gt=0"`
	StartDate string `validate:"required,datetime=2006-01-02"`
	EndDate   string `validate:"required,datetime=2006-01-02"`
}

// validateRequest checks req against its tags and returns an error wrapping
// ErrBadRequest that names the first failing field.
func validateRequest(req any) error {
	err := getValidator().Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s failed %s", ErrBadRequest, strings.ToLower(fe.Field()), fe.Tag())
	}
	return fmt.Errorf("%w: %w", ErrBadRequest, err)
}

// parseID parses an integer path parameter.
func parseID(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return n, nil
}
