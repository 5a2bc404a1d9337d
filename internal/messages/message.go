// Package messages defines the messages exchanged between clients and the
// server together with their string serializers.
//
// There are three kinds of messages:
//   - public client messages carry no player data and need no signature,
//   - player client messages carry the player public key and a signature
//     over the whole payload,
//   - server messages are produced by the server and sent back to clients.
//
// Client messages are JSON documents {"k":"<tag>","v":"<payload>"} where
// "k" is a routing key. Server messages skip JSON entirely: two tag
// characters, two request id characters, then the Base94 payload.
package messages

import (
	"fmt"
	"sort"
	"sync"

	"deusvent/internal/encoding"
	"deusvent/internal/wire"
)

// ClientMessage is a message sent by clients.
type ClientMessage interface {
	wire.Marshaler
	ClientTag() uint16
}

// ClientDecoder is a pointer to a client message that can be decoded.
type ClientDecoder interface {
	ClientMessage
	wire.Unmarshaler
}

// ServerMessage is a message sent by the server.
type ServerMessage interface {
	wire.Marshaler
	ServerTag() uint16
}

// ServerDecoder is a pointer to a server message that can be decoded.
type ServerDecoder interface {
	ServerMessage
	wire.Unmarshaler
}

// Access tells whether a client message must be signed by a player.
type Access int

const (
	Public Access = iota
	Player
)

func (a Access) String() string {
	if a == Player {
		return "player"
	}
	return "public"
}

// TagInfo describes a registered message.
type TagInfo struct {
	Tag    uint16
	Name   string
	Access Access
}

type registry struct {
	kind string
	mu   sync.RWMutex
	tags map[uint16]TagInfo
}

func newRegistry(kind string) *registry {
	return &registry{kind: kind, tags: make(map[uint16]TagInfo)}
}

func (r *registry) add(info TagInfo) {
	if info.Tag > encoding.MaxValidTag {
		panic(fmt.Sprintf("messages: %s tag %d for %s exceeds %d", r.kind, info.Tag, info.Name, encoding.MaxValidTag))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.tags[info.Tag]; ok && existing.Name != info.Name {
		panic(fmt.Sprintf("messages: %s tag %d is used by both %s and %s", r.kind, info.Tag, existing.Name, info.Name))
	}
	r.tags[info.Tag] = info
}

func (r *registry) lookup(tag uint16) (TagInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.tags[tag]
	return info, ok
}

func (r *registry) max() uint16 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var m uint16
	for tag := range r.tags {
		if tag > m {
			m = tag
		}
	}
	return m
}

func (r *registry) list() []TagInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TagInfo, 0, len(r.tags))
	for _, info := range r.tags {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

var (
	clientTags = newRegistry("client")
	serverTags = newRegistry("server")
)

// RegisterClientMessage registers a client message tag. It panics when the
// tag is taken by another message.
func RegisterClientMessage(tag uint16, name string, access Access) {
	clientTags.add(TagInfo{Tag: tag, Name: name, Access: access})
}

// RegisterServerMessage registers a server message tag. It panics when the
// tag is taken by another message.
func RegisterServerMessage(tag uint16, name string) {
	serverTags.add(TagInfo{Tag: tag, Name: name})
}

// LookupClientMessage returns the registration of a client tag.
func LookupClientMessage(tag uint16) (TagInfo, bool) { return clientTags.lookup(tag) }

// LookupServerMessage returns the registration of a server tag.
func LookupServerMessage(tag uint16) (TagInfo, bool) { return serverTags.lookup(tag) }

// ClientMessages lists registered client messages ordered by tag.
func ClientMessages() []TagInfo { return clientTags.list() }

// ServerMessages lists registered server messages ordered by tag.
func ServerMessages() []TagInfo { return serverTags.list() }

// MaxClientTag returns the highest registered client tag.
func MaxClientTag() uint16 { return clientTags.max() }

// MaxServerTag returns the highest registered server tag.
func MaxServerTag() uint16 { return serverTags.max() }
