package validator

import (
	"net/mail"
	"strings"
	"unicode"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

const maxContentLength = 10000

func ValidateRegister(email, firstName, lastName, password string) ValidationErrors {
	errs := make(ValidationErrors)

	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	if strings.TrimSpace(firstName) == "" {
		errs.Add("first_name", "First name is required")
	}
	if strings.TrimSpace(lastName) == "" {
		errs.Add("last_name", "Last name is required")
	}

	if password == "" {
		errs.Add("password", "Password is required")
	} else if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
	} else if !hasLetterAndDigit(password) {
		errs.Add("password", "Password must contain both letters and digits")
	}

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(email) == "" {
		errs.Add("email", "Email is required")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidateMessageContent(content string) ValidationErrors {
	errs := make(ValidationErrors)

	if content == "" {
		errs.Add("content", "Message content is required")
	} else if len(content) > maxContentLength {
		errs.Add("content", "Message content is too long")
	}

	return errs
}

func hasLetterAndDigit(s string) bool {
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}
