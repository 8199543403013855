package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateStartCallInput(input StartCallInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.Name) == "" {
		errors = append(errors, ValidationError{"name", "is required"})
	} else if len(input.Name) > 200 {
		errors = append(errors, ValidationError{"name", "must not exceed 200 characters"})
	}

	if strings.TrimSpace(input.Email) == "" {
		errors = append(errors, ValidationError{"email", "is required"})
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}

	if strings.TrimSpace(input.PhoneNumber) == "" {
		errors = append(errors, ValidationError{"phoneNumber", "is required"})
	} else if !isValidPhoneNumber(input.PhoneNumber) {
		errors = append(errors, ValidationError{"phoneNumber", "must be a valid phone number with country code"})
	}

	if strings.TrimSpace(input.Company) == "" {
		errors = append(errors, ValidationError{"company", "is required"})
	}

	if strings.TrimSpace(input.Role) == "" {
		errors = append(errors, ValidationError{"role", "is required"})
	}

	if strings.TrimSpace(input.UseCase) == "" {
		errors = append(errors, ValidationError{"useCase", "is required"})
	} else if len(input.UseCase) > 2000 {
		errors = append(errors, ValidationError{"useCase", "must not exceed 2000 characters"})
	}

	return errors
}

func isValidPhoneNumber(phone string) bool {
	cleaned := regexp.MustCompile(`\D`).ReplaceAllString(phone, "")
	return len(cleaned) >= 10 && len(cleaned) <= 15
}
