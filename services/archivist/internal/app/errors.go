package app

import "errors"

var (
	ErrMessageRequired       = errors.New("message is required")
	ErrTitleRequired         = errors.New("title is required")
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrConversationForbidden = errors.New("conversation belongs to another user")
)
