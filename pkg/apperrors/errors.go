package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrTemplateCollision = errors.New("template key already in use")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidArgument   = errors.New("invalid argument")
)
