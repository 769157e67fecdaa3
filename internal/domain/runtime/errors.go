package runtime

import "errors"

var (
	ErrRoomExists        = errors.New("room already exists")
	ErrRoomNotFound      = errors.New("room not found")
	ErrWrongPassword     = errors.New("wrong room password")
	ErrAlreadyPresenting = errors.New("another presenter is already active")
	ErrNotPresenting     = errors.New("no active presenter")
)
