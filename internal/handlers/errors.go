package handlers

import (
	"errors"

	"deusvent/internal/messages"
	"deusvent/repository"
)

// ErrUnauthenticated is returned by handlers that need an authenticated
// player but found none.
var ErrUnauthenticated = errors.New("authentication required")

// toServerError maps a handler failure to the error reported to the client.
func toServerError(err error, tag uint16, requestID uint8) *messages.ServerError {
	var (
		serr   *messages.ServerError
		decErr *messages.SerializationError
		ioErr  *repository.IOError
		valErr *repository.ValidationError
	)
	switch {
	case errors.As(err, &serr):
		out := *serr
		out.MessageTag = tag
		out.RequestID = requestID
		return &out
	case errors.As(err, &decErr):
		return messages.ServerErrorFromSerialization(err, tag, requestID)
	case errors.Is(err, ErrUnauthenticated):
		return messages.NewServerError(messages.AuthenticationError,
			"Authentication failed, please sign in again", err.Error(), tag, requestID, false)
	case errors.As(err, &ioErr):
		return messages.NewServerError(messages.IOError,
			"Temporary error, please try again", err.Error(), tag, requestID, true)
	case errors.As(err, &valErr), errors.Is(err, repository.ErrNotFound):
		return messages.NewServerError(messages.InvalidData,
			"Data is invalid", err.Error(), tag, requestID, false)
	default:
		return messages.NewServerError(messages.InternalError,
			"Server error", err.Error(), tag, requestID, true)
	}
}
