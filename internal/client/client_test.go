package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"deusvent/internal/encryption"
	"deusvent/internal/gateway"
	grpcserver "deusvent/internal/grpc"
	"deusvent/internal/handlers"
	"deusvent/internal/messages"
	"deusvent/repository"
)

const testSecret = "client-secret"

func newRouter() *handlers.Router {
	api := &handlers.API{Storage: repository.NewMemoryStorage(), JWTSecret: testSecret, TokenTTL: time.Hour}
	return api.Router()
}

func newKeys(t *testing.T) encryption.Keys {
	t.Helper()
	keys, err := encryption.GenerateKeys()
	require.NoError(t, err)
	return keys
}

func startWS(t *testing.T) string {
	t.Helper()
	return startWSRouter(t, newRouter())
}

func startWSRouter(t *testing.T, router *handlers.Router) string {
	t.Helper()
	srv := httptest.NewServer(gateway.NewServer(router, testSecret).Handler(""))
	t.Cleanup(srv.Close)
	return wsURL(srv.URL) + "/ws"
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestWSClient(t *testing.T) {
	ctx := testContext(t)
	url := startWS(t)
	keys := newKeys(t)

	conn, err := DialWS(ctx, url, "")
	require.NoError(t, err)
	c := New(conn, keys)
	defer c.Close()

	status, err := c.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, messages.StatusOK, status.Status)
	assert.NotZero(t, c.Clock().Now())

	decay, err := c.Decay(ctx)
	require.NoError(t, err)
	assert.Equal(t, handlers.DecayLength, decay.Length)

	reg, err := c.Register(ctx, "1.0")
	require.NoError(t, err)

	// No token yet
	_, err = c.SetIdentity(ctx, "Ada", true)
	var serr *messages.ServerError
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Equal(t, messages.AuthenticationError, serr.Code)

	authed, err := DialWS(ctx, url, reg.Token)
	require.NoError(t, err)
	ac := New(authed, keys)
	defer ac.Close()
	accepted, err := ac.SetIdentity(ctx, "Ada", true)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, accepted.UserID)
}

func TestWSClient_ConcurrentRequests(t *testing.T) {
	ctx := testContext(t)
	conn, err := DialWS(ctx, startWS(t), "")
	require.NoError(t, err)
	c := New(conn, newKeys(t))
	defer c.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Ping(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("ping: %v", err)
	}
}

func TestWSClient_UnroutedMessage(t *testing.T) {
	ctx := testContext(t)
	api := &handlers.API{Storage: repository.NewMemoryStorage(), JWTSecret: testSecret, TokenTTL: time.Hour}
	router := handlers.NewRouter()
	handlers.HandlePublic(router, api.Ping)

	conn, err := DialWS(ctx, startWSRouter(t, router), "")
	require.NoError(t, err)
	c := New(conn, newKeys(t))
	defer c.Close()

	_, err = c.Decay(ctx)
	var serr *messages.ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, messages.InvalidData, serr.Code)
	assert.Equal(t, messages.DecayQuery{}.ClientTag(), serr.MessageTag)

	_, err = c.Ping(ctx)
	require.NoError(t, err)
}

func TestWSConn_ErrorWithoutRequestID(t *testing.T) {
	ctx := testContext(t)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			tag, err := messages.PeekClientTag(string(data))
			if err != nil {
				return
			}
			serr := messages.NewServerError(messages.InvalidData, "Unknown message", "", tag, 0, false)
			if err := ws.WriteMessage(websocket.TextMessage, []byte(messages.SerializeServer(serr, 0))); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	conn, err := DialWS(ctx, wsURL(srv.URL), "")
	require.NoError(t, err)
	defer conn.Close()

	resp, err := conn.Exchange(ctx, messages.SerializeClientPublic(messages.Register{ClientVersion: "1"}, 9), 9)
	require.NoError(t, err)
	err = decodeResponse(resp, &messages.Registered{}, 9)
	var serr *messages.ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, messages.Register{}.ClientTag(), serr.MessageTag)
}

func TestWSConn_Closed(t *testing.T) {
	ctx := testContext(t)
	conn, err := DialWS(ctx, startWS(t), "")
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	_, err = conn.Exchange(ctx, messages.SerializeClientPublic(messages.Ping{}, 1), 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestGRPCClient(t *testing.T) {
	ctx := testContext(t)
	srv, _ := grpcserver.NewServer(testSecret, newRouter())
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := DialGRPC("passthrough:///bufnet", "",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	c := New(conn, newKeys(t))
	defer c.Close()

	_, err = c.Ping(ctx)
	require.NoError(t, err)

	reg, err := c.Register(ctx, "1.0")
	require.NoError(t, err)

	_, err = c.SetIdentity(ctx, "Grace", false)
	var serr *messages.ServerError
	require.ErrorAs(t, err, &serr)

	conn.SetToken(reg.Token)
	accepted, err := c.SetIdentity(ctx, "Grace", false)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, accepted.UserID)
}
