package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"

	grpcserver "deusvent/internal/grpc"
	"deusvent/internal/messages"
)

// Conn sends a serialized client message and returns the server response
// with the same request id.
type Conn interface {
	Exchange(ctx context.Context, msg string, requestID uint8) (string, error)
	Close() error
}

// ErrClosed is returned for requests on a closed connection.
var ErrClosed = errors.New("connection closed")

// WSConn is a WebSocket connection. Concurrent requests are matched to
// responses by request id.
type WSConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint8]pendingRequest
	err     error
	done    chan struct{}
}

var _ Conn = (*WSConn)(nil)

type pendingRequest struct {
	tag uint16
	ch  chan string
}

// DialWS connects to a gateway /ws endpoint. An empty token connects
// anonymously.
func DialWS(ctx context.Context, url, token string) (*WSConn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &WSConn{
		conn:    conn,
		pending: make(map[uint8]pendingRequest),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *WSConn) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}
		resp := string(data)
		requestID, err := messages.PeekServerRequestID(resp)
		if err != nil {
			log.Printf("[client] dropping malformed response: %v", err)
			continue
		}
		failedTag, isError := failedMessageTag(resp)
		c.mu.Lock()
		p, ok := c.pending[requestID]
		if !ok && isError && requestID == 0 {
			requestID, p, ok = c.pendingByTag(failedTag)
		}
		if ok {
			delete(c.pending, requestID)
		}
		c.mu.Unlock()
		if !ok {
			log.Printf("[client] no pending request %d", requestID)
			continue
		}
		p.ch <- resp
	}
}

// failedMessageTag returns the client tag a ServerError response refers to.
func failedMessageTag(resp string) (uint16, bool) {
	tag, err := messages.PeekServerTag(resp)
	if err != nil || tag != (messages.ServerError{}).ServerTag() {
		return 0, false
	}
	var serr messages.ServerError
	if _, err := messages.DeserializeServer(resp, &serr); err != nil {
		return 0, false
	}
	return serr.MessageTag, true
}

// pendingByTag finds a request sent with tag. Servers that couldn't read the
// request id answer errors with id 0. Must be called with mu held.
func (c *WSConn) pendingByTag(tag uint16) (uint8, pendingRequest, bool) {
	for id, p := range c.pending {
		if p.tag == tag {
			return id, p, true
		}
	}
	return 0, pendingRequest{}, false
}

func (c *WSConn) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return
	}
	c.err = err
	close(c.done)
}

// Exchange sends msg and waits for the response to requestID.
func (c *WSConn) Exchange(ctx context.Context, msg string, requestID uint8) (string, error) {
	tag, _ := messages.PeekClientTag(msg)
	ch := make(chan string, 1)
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return "", fmt.Errorf("%w: %v", ErrClosed, c.err)
	}
	if _, busy := c.pending[requestID]; busy {
		c.mu.Unlock()
		return "", fmt.Errorf("request %d already in flight", requestID)
	}
	c.pending[requestID] = pendingRequest{tag: tag, ch: ch}
	c.mu.Unlock()

	release := func() {
		c.mu.Lock()
		if c.pending[requestID].ch == ch {
			delete(c.pending, requestID)
		}
		c.mu.Unlock()
	}

	c.writeMu.Lock()
	err := c.conn.WriteMessage(websocket.TextMessage, []byte(msg))
	c.writeMu.Unlock()
	if err != nil {
		release()
		return "", fmt.Errorf("write: %w", err)
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-c.done:
		release()
		return "", fmt.Errorf("%w: %v", ErrClosed, c.err)
	case <-ctx.Done():
		release()
		return "", ctx.Err()
	}
}

// Close sends a close frame and closes the connection.
func (c *WSConn) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	c.fail(ErrClosed)
	return c.conn.Close()
}

// GRPCConn sends messages through the gRPC gateway. Player messages go to
// the Player method, everything else to Public.
type GRPCConn struct {
	cc     *grpc.ClientConn
	client *grpcserver.GatewayClient

	mu    sync.RWMutex
	token string
}

var _ Conn = (*GRPCConn)(nil)

// DialGRPC creates a client for the gRPC gateway at addr.
func DialGRPC(addr, token string, opts ...grpc.DialOption) (*GRPCConn, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	cc, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &GRPCConn{cc: cc, client: grpcserver.NewGatewayClient(cc), token: token}, nil
}

// SetToken replaces the bearer token sent with every call.
func (c *GRPCConn) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Exchange sends msg. gRPC correlates the response, requestID is unused.
func (c *GRPCConn) Exchange(ctx context.Context, msg string, _ uint8) (string, error) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}

	call := c.client.Public
	if tag, err := messages.PeekClientTag(msg); err == nil {
		if info, ok := messages.LookupClientMessage(tag); ok && info.Access == messages.Player {
			call = c.client.Player
		}
	}
	resp, err := call(ctx, wrapperspb.String(msg))
	if err != nil {
		return "", err
	}
	return resp.GetValue(), nil
}

// Close closes the underlying connection.
func (c *GRPCConn) Close() error { return c.cc.Close() }
