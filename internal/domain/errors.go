package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrNoData   = errors.New("no quotes available")
	ErrNoVenue  = errors.New("no venue covers pair")
)
