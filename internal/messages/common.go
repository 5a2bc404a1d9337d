package messages

import (
	"fmt"

	"deusvent/internal/datetime"
	"deusvent/internal/wire"
)

const (
	pingTag         uint16 = 0
	serverStatusTag uint16 = 1
)

func init() {
	RegisterClientMessage(pingTag, "Ping", Public)
	RegisterServerMessage(serverStatusTag, "ServerStatus")
}

// Ping asks for the server status and its current time.
type Ping struct{}

func (Ping) ClientTag() uint16                    { return pingTag }
func (Ping) MarshalWire(*wire.Encoder)            {}
func (*Ping) UnmarshalWire(d *wire.Decoder) error { return d.Err() }

// Status of the server.
type Status uint8

const (
	StatusOK Status = iota
)

func (s Status) String() string {
	if s == StatusOK {
		return "OK"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// ServerStatus answers Ping.
type ServerStatus struct {
	Timestamp datetime.ServerTimestamp
	Status    Status
}

func (ServerStatus) ServerTag() uint16 { return serverStatusTag }

func (m ServerStatus) MarshalWire(e *wire.Encoder) {
	e.Uint64(m.Timestamp.Milliseconds())
	e.Uint8(uint8(m.Status))
}

func (m *ServerStatus) UnmarshalWire(d *wire.Decoder) error {
	m.Timestamp = datetime.NewServerTimestamp(d.Uint64())
	status := d.Uint8()
	if d.Err() == nil && Status(status) != StatusOK {
		return fmt.Errorf("unknown status %d", status)
	}
	m.Status = Status(status)
	return d.Err()
}
