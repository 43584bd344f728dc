package roomsync

import "errors"

var (
	ErrBootstrap     = errors.New("chat unavailable")
	ErrRoomExists    = errors.New("room already exists")
	ErrEmptyMessage  = errors.New("message needs text or an attachment")
	ErrUpload        = errors.New("attachment upload failed")
	ErrSubmit        = errors.New("message submission failed")
	ErrDelete        = errors.New("message delete failed")
	ErrTranscription = errors.New("transcription failed")
	ErrNoIdentity    = errors.New("no username chosen")
)
