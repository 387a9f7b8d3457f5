package domain

import "errors"

var (
	ErrUnknownField = errors.New("unknown field")
	ErrNoSymbols    = errors.New("no symbols configured")
)
