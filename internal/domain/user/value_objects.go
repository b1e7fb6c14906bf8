package user

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidLogin    = errors.New("invalid login format")
	ErrPasswordTooWeak = errors.New("password must be at least 8 characters long")
)

var loginRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]{3,64}$`)

type Login struct {
	value string
}

func NewLogin(s string) (Login, error) {
	s = strings.TrimSpace(s)
	if !loginRegex.MatchString(s) {
		return Login{}, ErrInvalidLogin
	}
	return Login{value: s}, nil
}

func (l Login) Value() string {
	return l.value
}

type Password struct {
	value string
}

func NewPassword(s string) (Password, error) {
	if len(s) < 8 {
		return Password{}, ErrPasswordTooWeak
	}
	return Password{value: s}, nil
}

func (p Password) Value() string {
	return p.value
}
