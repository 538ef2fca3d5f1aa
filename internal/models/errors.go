package models

import "errors"

var (
	// ErrInvalidArgument marks caller input that is missing or malformed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidFilter marks a filter or sort expression rejected locally.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrMissingID marks a remote record or entry that carried no ID.
	ErrMissingID = errors.New("record has no id")
)
