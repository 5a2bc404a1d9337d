package messages

import (
	"deusvent/internal/datetime"
	"deusvent/internal/encryption"
	"deusvent/internal/wire"
)

const (
	decayQueryTag       uint16 = 2
	identityTag         uint16 = 3
	decayTag            uint16 = 2
	identityAcceptedTag uint16 = 5
)

func init() {
	RegisterClientMessage(decayQueryTag, "DecayQuery", Player)
	RegisterClientMessage(identityTag, "Identity", Player)
	RegisterServerMessage(decayTag, "Decay")
	RegisterServerMessage(identityAcceptedTag, "IdentityAccepted")
}

// DecayQuery asks for the player's decay state.
type DecayQuery struct{}

func (DecayQuery) ClientTag() uint16                    { return decayQueryTag }
func (DecayQuery) MarshalWire(*wire.Encoder)            {}
func (*DecayQuery) UnmarshalWire(d *wire.Decoder) error { return d.Err() }

// Decay is the period the player has left before the character decays.
type Decay struct {
	StartedAt datetime.ServerTimestamp
	Length    datetime.Duration
}

func (Decay) ServerTag() uint16 { return decayTag }

func (m Decay) MarshalWire(e *wire.Encoder) {
	e.Uint64(m.StartedAt.Milliseconds())
	e.Uint64(m.Length.Milliseconds())
}

func (m *Decay) UnmarshalWire(d *wire.Decoder) error {
	m.StartedAt = datetime.NewServerTimestamp(d.Uint64())
	m.Length = datetime.DurationFromMilliseconds(d.Uint64())
	return d.Err()
}

// Identity sets the player name, optionally encrypted.
type Identity struct {
	Name encryption.SafeString
}

func (Identity) ClientTag() uint16 { return identityTag }

func (m Identity) MarshalWire(e *wire.Encoder) { m.Name.MarshalWire(e) }

func (m *Identity) UnmarshalWire(d *wire.Decoder) error { return m.Name.UnmarshalWire(d) }

// IdentityAccepted confirms an Identity was stored.
type IdentityAccepted struct {
	UserID string
}

func (IdentityAccepted) ServerTag() uint16 { return identityAcceptedTag }

func (m IdentityAccepted) MarshalWire(e *wire.Encoder) { e.String(m.UserID) }

func (m *IdentityAccepted) UnmarshalWire(d *wire.Decoder) error {
	m.UserID = d.String()
	return d.Err()
}
