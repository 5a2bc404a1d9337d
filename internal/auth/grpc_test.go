package auth

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"deusvent/internal/testutil"
	"deusvent/models"
)

func TestUnaryAuthInterceptor(t *testing.T) {
	secret := "s3cr3t"
	interceptor := NewUnaryAuthInterceptor(secret, "/grpc.health.v1.Health/Check")
	info := &grpc.UnaryServerInfo{FullMethod: "/deusvent.v1.Gateway/Player"}

	// Allowlisted path ignores even a broken token
	called := false
	_, err := interceptor(testutil.CtxWithBearer(context.Background(), "garbage"), nil,
		&grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, req any) (any, error) {
			called = true
			return nil, nil
		})
	if err != nil || !called {
		t.Fatalf("allowlisted: err=%v called=%v", err, called)
	}

	// No token: passes through without a principal
	called = false
	_, err = interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		called = true
		if _, ok := FromContext(ctx); ok {
			t.Fatalf("expected no principal for anonymous call")
		}
		return nil, nil
	})
	if err != nil || !called {
		t.Fatalf("anonymous: err=%v called=%v", err, called)
	}

	// Invalid token is rejected
	_, err = interceptor(testutil.CtxWithBearer(context.Background(), "garbage"), nil, info,
		func(ctx context.Context, req any) (any, error) {
			t.Fatalf("handler must not run for invalid token")
			return nil, nil
		})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	// Valid token injects the principal
	userID := models.NewUserID()
	tok := testutil.GenerateJWTHS256(t, secret, userID.String(), time.Now().Add(time.Hour))
	_, err = interceptor(testutil.CtxWithBearer(context.Background(), tok), nil, info,
		func(ctx context.Context, req any) (any, error) {
			p, ok := FromContext(ctx)
			if !ok {
				t.Fatalf("missing principal")
			}
			if p.UserID != userID {
				t.Fatalf("principal mismatch: %+v", p)
			}
			return nil, nil
		})
	if err != nil {
		t.Fatalf("valid token: %v", err)
	}
}

func TestFromContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("expected no principal")
	}
	if _, ok := FromContext(WithPrincipal(context.Background(), nil)); ok {
		t.Fatalf("expected no principal for nil")
	}
	ctx := WithPrincipal(context.Background(), &Principal{UserID: models.NewUserID()})
	if _, ok := FromContext(ctx); !ok {
		t.Fatalf("missing principal")
	}
}
