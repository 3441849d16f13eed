package insight

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateInsight checks required fields and enum values of an insight.
func ValidateInsight(in Insight) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInsight, describe(err))
	}
	return nil
}

// ValidateConcern checks required fields and enum values of a concern.
func ValidateConcern(c Concern) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConcern, describe(err))
	}
	return nil
}

// ValidateInsightTransition validates a requested insight status change.
func ValidateInsightTransition(from, to InsightStatus) error {
	valid := false
	switch from {
	case StatusProposed:
		valid = to == StatusApproved || to == StatusRejected
	case StatusApproved, StatusRejected:
		valid = to == StatusProposed
	}
	if !valid {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// ValidateConcernTransition validates a requested concern status change.
func ValidateConcernTransition(from, to ConcernStatus, resolvedBy *string) error {
	valid := false
	switch from {
	case ConcernOpen:
		valid = to == ConcernResolved
	case ConcernResolved:
		valid = to == ConcernOpen
	}
	if !valid {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if to == ConcernResolved && (resolvedBy == nil || strings.TrimSpace(*resolvedBy) == "") {
		return ErrMissingResolvedBy
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
