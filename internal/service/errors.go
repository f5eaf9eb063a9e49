package service

import (
	"github.com/pkg/errors"
)

var (
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("actor is not the resource owner")

	ErrLoginUserNotFound         = errors.New("user not found")
	ErrLoginPasswordDoesNotMatch = errors.New("password does not match")
)
