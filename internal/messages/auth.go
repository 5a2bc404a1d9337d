package messages

import "deusvent/internal/wire"

const (
	registerTag   uint16 = 1
	registeredTag uint16 = 4
)

func init() {
	RegisterClientMessage(registerTag, "Register", Public)
	RegisterServerMessage(registeredTag, "Registered")
}

// Register creates a new account.
type Register struct {
	ClientVersion string
}

func (Register) ClientTag() uint16 { return registerTag }

func (m Register) MarshalWire(e *wire.Encoder) { e.String(m.ClientVersion) }

func (m *Register) UnmarshalWire(d *wire.Decoder) error {
	m.ClientVersion = d.String()
	return d.Err()
}

// Registered carries the new account id and the token authenticating it.
type Registered struct {
	UserID string
	Token  string
}

func (Registered) ServerTag() uint16 { return registeredTag }

func (m Registered) MarshalWire(e *wire.Encoder) {
	e.String(m.UserID)
	e.String(m.Token)
}

func (m *Registered) UnmarshalWire(d *wire.Decoder) error {
	m.UserID = d.String()
	m.Token = d.String()
	return d.Err()
}
