package app

import "errors"

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrListNotFound    = errors.New("list not found")
	ErrForbidden       = errors.New("forbidden")
	ErrTitleRequired   = errors.New("title is required")
	ErrNameRequired    = errors.New("name is required")
	ErrInvalidTag      = errors.New("invalid reading tag")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrEmptyCoverImage = errors.New("cover image is empty")
)
