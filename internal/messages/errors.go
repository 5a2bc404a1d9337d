package messages

import (
	"fmt"

	"deusvent/internal/wire"
)

// SerializationError is returned when a message can't be decoded.
type SerializationError struct {
	Msg string
	Err error
}

func (e *SerializationError) Error() string {
	return "Data error: " + e.Msg
}

func (e *SerializationError) Unwrap() error { return e.Err }

func badData(msg string) error {
	return &SerializationError{Msg: msg}
}

func wrapBadData(err error) error {
	if err == nil {
		return nil
	}
	return &SerializationError{Msg: err.Error(), Err: err}
}

// ErrorCode classifies a ServerError.
type ErrorCode uint8

const (
	// AuthenticationError means authentication or signature validation failed.
	AuthenticationError ErrorCode = iota
	// SerializationFailed means the message could not be encoded or decoded.
	SerializationFailed
	// InvalidData means the request was decoded but its content is invalid.
	InvalidData
	// IOError is a temporary failure, the request may be retried.
	IOError
	// InternalError is an undefined server failure.
	InternalError
)

var errorCodeNames = [...]string{
	AuthenticationError: "AuthenticationError",
	SerializationFailed: "SerializationError",
	InvalidData:         "InvalidData",
	IOError:             "IOError",
	InternalError:       "ServerError",
}

func (c ErrorCode) String() string {
	if int(c) < len(errorCodeNames) {
		return errorCodeNames[c]
	}
	return fmt.Sprintf("ErrorCode(%d)", uint8(c))
}

// ServerError is the general reply to a message the server could not
// process.
type ServerError struct {
	Code ErrorCode
	// Description can be shown to the player and should suggest how the
	// error can be resolved.
	Description string
	// Context is debugging information not meant for players.
	Context     *string
	RequestID   uint8
	MessageTag  uint16
	Recoverable bool
}

const serverErrorTag uint16 = 3

func init() { RegisterServerMessage(serverErrorTag, "ServerError") }

func (ServerError) ServerTag() uint16 { return serverErrorTag }

func (e ServerError) MarshalWire(enc *wire.Encoder) {
	enc.Uint8(uint8(e.Code))
	enc.String(e.Description)
	enc.OptionalString(e.Context)
	enc.Uint8(e.RequestID)
	enc.Uint16(e.MessageTag)
	enc.Bool(e.Recoverable)
}

func (e *ServerError) UnmarshalWire(d *wire.Decoder) error {
	code := d.Uint8()
	if d.Err() == nil && int(code) >= len(errorCodeNames) {
		return fmt.Errorf("unknown error code %d", code)
	}
	e.Code = ErrorCode(code)
	e.Description = d.String()
	e.Context = d.OptionalString()
	e.RequestID = d.Uint8()
	e.MessageTag = d.Uint16()
	e.Recoverable = d.Bool()
	return d.Err()
}

// Error lets a ServerError received by a client travel as a Go error.
func (e *ServerError) Error() string {
	msg := fmt.Sprintf("server error %s for message %d: %s", e.Code, e.MessageTag, e.Description)
	if e.Context != nil {
		msg += " (" + *e.Context + ")"
	}
	return msg
}

// NewServerError creates a ServerError with an optional context.
func NewServerError(code ErrorCode, description string, context string, tag uint16, requestID uint8, recoverable bool) *ServerError {
	e := &ServerError{
		Code:        code,
		Description: description,
		RequestID:   requestID,
		MessageTag:  tag,
		Recoverable: recoverable,
	}
	if context != "" {
		e.Context = &context
	}
	return e
}

// ServerErrorFromSerialization reports a message that failed to decode.
func ServerErrorFromSerialization(err error, tag uint16, requestID uint8) *ServerError {
	return NewServerError(SerializationFailed, "Data is invalid and cannot be processed", err.Error(), tag, requestID, false)
}
