// Package handlers routes client messages to their handlers and turns every
// outcome, success or failure, into a serialized server message.
package handlers

import (
	"context"
	"log"
	"sort"

	"deusvent/internal/encryption"
	"deusvent/internal/messages"
)

// PublicFunc handles a decoded public message.
type PublicFunc[M messages.ClientDecoder] func(ctx context.Context, msg M, requestID uint8) (messages.ServerMessage, error)

// PlayerFunc handles a decoded and verified player message. publicKey is the
// key that signed it.
type PlayerFunc[M messages.ClientDecoder] func(ctx context.Context, msg M, publicKey *encryption.PublicKey, requestID uint8) (messages.ServerMessage, error)

// clientMessage constrains PT to be a pointer to T implementing
// messages.ClientDecoder so handlers can allocate fresh messages.
type clientMessage[T any] interface {
	*T
	messages.ClientDecoder
}

type route struct {
	name   string
	access messages.Access
	handle func(ctx context.Context, data string) (messages.ServerMessage, uint8, error)
}

// Router dispatches client messages by tag. Register routes before serving,
// it is not safe to add routes concurrently with Handle.
type Router struct {
	routes map[uint16]route
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{routes: make(map[uint16]route)}
}

func (r *Router) add(tag uint16, rt route) {
	if _, ok := r.routes[tag]; ok {
		panic("handlers: duplicate route for " + rt.name)
	}
	r.routes[tag] = rt
}

// HandlePublic registers fn for the public message type T.
func HandlePublic[T any, PT clientMessage[T]](r *Router, fn PublicFunc[PT]) {
	tag := PT(new(T)).ClientTag()
	info := mustLookup(tag, messages.Public)
	r.add(tag, route{
		name:   info.Name,
		access: messages.Public,
		handle: func(ctx context.Context, data string) (messages.ServerMessage, uint8, error) {
			msg := PT(new(T))
			requestID, err := messages.DeserializeClientPublic(data, msg)
			if err != nil {
				return nil, peekRequestID(data, messages.Public), err
			}
			resp, err := fn(ctx, msg, requestID)
			return resp, requestID, err
		},
	})
}

// HandlePlayer registers fn for the player message type T. The signature is
// verified before fn runs.
func HandlePlayer[T any, PT clientMessage[T]](r *Router, fn PlayerFunc[PT]) {
	tag := PT(new(T)).ClientTag()
	info := mustLookup(tag, messages.Player)
	r.add(tag, route{
		name:   info.Name,
		access: messages.Player,
		handle: func(ctx context.Context, data string) (messages.ServerMessage, uint8, error) {
			msg := PT(new(T))
			pub, requestID, err := messages.DeserializeClientPlayer(data, msg)
			if err != nil {
				return nil, peekRequestID(data, messages.Player), err
			}
			resp, err := fn(ctx, msg, pub, requestID)
			return resp, requestID, err
		},
	})
}

func mustLookup(tag uint16, access messages.Access) messages.TagInfo {
	info, ok := messages.LookupClientMessage(tag)
	if !ok {
		panic("handlers: unregistered client message tag")
	}
	if info.Access != access {
		panic("handlers: " + info.Name + " is a " + info.Access.String() + " message")
	}
	return info
}

func peekRequestID(data string, access messages.Access) uint8 {
	id, err := messages.PeekClientRequestID(data, access)
	if err != nil {
		return 0
	}
	return id
}

// accessOf returns the access level of a registered message. Tags this
// build doesn't know are read as public messages.
func accessOf(tag uint16) messages.Access {
	if info, ok := messages.LookupClientMessage(tag); ok {
		return info.Access
	}
	return messages.Public
}

// Tags returns the routed client tags in ascending order.
func (r *Router) Tags() []uint16 {
	tags := make([]uint16, 0, len(r.routes))
	for tag := range r.routes {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Handle processes a serialized client message of any access level.
func (r *Router) Handle(ctx context.Context, data string) string {
	return r.handle(ctx, data, nil)
}

// HandleAccess is like Handle but rejects messages of another access level.
func (r *Router) HandleAccess(ctx context.Context, data string, access messages.Access) string {
	return r.handle(ctx, data, &access)
}

func (r *Router) handle(ctx context.Context, data string, access *messages.Access) string {
	tag, err := messages.PeekClientTag(data)
	if err != nil {
		log.Printf("[handlers] cannot read message tag: %v", err)
		return messages.SerializeServer(messages.ServerErrorFromSerialization(err, 0, 0), 0)
	}
	rt, ok := r.routes[tag]
	if !ok {
		requestID := peekRequestID(data, accessOf(tag))
		log.Printf("[handlers] unknown message tag %d (request=%d)", tag, requestID)
		serr := messages.NewServerError(messages.InvalidData, "Unknown message", "", tag, requestID, false)
		return messages.SerializeServer(serr, requestID)
	}
	if access != nil && rt.access != *access {
		requestID := peekRequestID(data, rt.access)
		serr := messages.NewServerError(messages.InvalidData,
			rt.name+" is a "+rt.access.String()+" message", "", tag, requestID, false)
		return messages.SerializeServer(serr, requestID)
	}

	resp, requestID, err := rt.handle(ctx, data)
	if err != nil {
		serr := toServerError(err, tag, requestID)
		log.Printf("[handlers] %s (tag=%d request=%d) failed: %v", rt.name, tag, requestID, err)
		return messages.SerializeServer(serr, requestID)
	}
	if resp == nil {
		serr := messages.NewServerError(messages.InternalError, "Server error", "handler returned no response", tag, requestID, true)
		return messages.SerializeServer(serr, requestID)
	}
	return messages.SerializeServer(resp, requestID)
}
