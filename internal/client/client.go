// Package client talks to the game server over a Conn.
package client

import (
	"context"
	"fmt"
	"sync/atomic"

	"deusvent/internal/datetime"
	"deusvent/internal/encryption"
	"deusvent/internal/messages"
)

// Client sends typed messages and decodes the responses. A ServerError
// response is returned as a *messages.ServerError.
type Client struct {
	conn   Conn
	keys   encryption.Keys
	clock  *datetime.SyncedTimestamp
	nextID atomic.Uint32
}

// New returns a client signing player messages with keys.
func New(conn Conn, keys encryption.Keys) *Client {
	return &Client{conn: conn, keys: keys, clock: datetime.NewSyncedTimestamp()}
}

// Clock is the local clock adjusted to the server time by Ping.
func (c *Client) Clock() *datetime.SyncedTimestamp { return c.clock }

// Close closes the connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) requestID() uint8 {
	return uint8(c.nextID.Add(1))
}

func (c *Client) sendPublic(ctx context.Context, msg messages.ClientMessage, resp messages.ServerDecoder) error {
	requestID := c.requestID()
	data, err := c.conn.Exchange(ctx, messages.SerializeClientPublic(msg, requestID), requestID)
	if err != nil {
		return err
	}
	return decodeResponse(data, resp, requestID)
}

func (c *Client) sendPlayer(ctx context.Context, msg messages.ClientMessage, resp messages.ServerDecoder) error {
	if c.keys.Private == nil {
		return fmt.Errorf("no player keys")
	}
	requestID := c.requestID()
	data, err := messages.SerializeClientPlayer(msg, requestID, c.keys)
	if err != nil {
		return err
	}
	out, err := c.conn.Exchange(ctx, data, requestID)
	if err != nil {
		return err
	}
	return decodeResponse(out, resp, requestID)
}

func decodeResponse(data string, resp messages.ServerDecoder, requestID uint8) error {
	tag, err := messages.PeekServerTag(data)
	if err != nil {
		return err
	}
	if tag == (messages.ServerError{}).ServerTag() && tag != resp.ServerTag() {
		serr := &messages.ServerError{}
		if _, err := messages.DeserializeServer(data, serr); err != nil {
			return err
		}
		return serr
	}
	got, err := messages.DeserializeServer(data, resp)
	if err != nil {
		return err
	}
	if got != requestID {
		return fmt.Errorf("response for request %d, expected %d", got, requestID)
	}
	return nil
}

// Ping fetches the server status and synchronizes the clock.
func (c *Client) Ping(ctx context.Context) (messages.ServerStatus, error) {
	var status messages.ServerStatus
	sentAt := datetime.Now()
	if err := c.sendPublic(ctx, messages.Ping{}, &status); err != nil {
		return status, err
	}
	c.clock.Adjust(status.Timestamp, sentAt, datetime.Now())
	return status, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, clientVersion string) (messages.Registered, error) {
	var reg messages.Registered
	err := c.sendPublic(ctx, messages.Register{ClientVersion: clientVersion}, &reg)
	return reg, err
}

// Decay fetches the decay period of the player.
func (c *Client) Decay(ctx context.Context) (messages.Decay, error) {
	var decay messages.Decay
	err := c.sendPlayer(ctx, messages.DecayQuery{}, &decay)
	return decay, err
}

// SetIdentity stores the player name, encrypted with the player key when
// encrypt is set.
func (c *Client) SetIdentity(ctx context.Context, name string, encrypt bool) (messages.IdentityAccepted, error) {
	var accepted messages.IdentityAccepted
	safe := encryption.Plaintext(name)
	if encrypt {
		if c.keys.Private == nil {
			return accepted, fmt.Errorf("no player keys")
		}
		enc, err := encryption.Encrypt(name, c.keys.Private)
		if err != nil {
			return accepted, err
		}
		safe = encryption.Encrypted(enc)
	}
	err := c.sendPlayer(ctx, messages.Identity{Name: safe}, &accepted)
	return accepted, err
}
