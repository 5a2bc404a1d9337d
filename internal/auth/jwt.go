package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/metadata"

	"deusvent/models"
)

// ErrNoToken is returned when a request carries no bearer token.
var ErrNoToken = errors.New("missing authorization")

// Principal is the authenticated player.
type Principal struct {
	UserID models.UserID
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// AuthToken is a signed token proving account ownership.
type AuthToken struct {
	token string
}

// NewAuthToken wraps an existing token string.
func NewAuthToken(token string) AuthToken { return AuthToken{token: token} }

// Token returns the token string.
func (t AuthToken) Token() string { return t.token }

func (t AuthToken) String() string { return t.token }

// Issue signs a token for the user valid for ttl.
func Issue(secret string, userID models.UserID, ttl time.Duration) (AuthToken, error) {
	if secret == "" {
		return AuthToken{}, errors.New("jwt secret is empty")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  userID.String(),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AuthToken{}, fmt.Errorf("sign token: %w", err)
	}
	return AuthToken{token: s}, nil
}

// ParseToken validates a token and returns its principal.
func ParseToken(tokenStr string, secret string) (*Principal, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("invalid claims")
	}
	userID, err := models.ParseUserID(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	return &Principal{UserID: userID}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <jwt>"
// header value.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", ErrNoToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// ParseFromMD extracts and validates a bearer token from gRPC metadata. It
// returns ErrNoToken when the metadata has none.
func ParseFromMD(ctx context.Context, secret string) (*Principal, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, ErrNoToken
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return nil, ErrNoToken
	}
	tokenStr, err := BearerToken(vals[0])
	if err != nil {
		return nil, err
	}
	return ParseToken(tokenStr, secret)
}
