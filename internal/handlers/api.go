package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deusvent/internal/auth"
	"deusvent/internal/datetime"
	"deusvent/internal/encryption"
	"deusvent/internal/messages"
	"deusvent/models"
	"deusvent/repository"
)

// DecayLength is how long a character lasts before it decays.
var DecayLength = datetime.DurationFromDays(3651)

// HealthyStatus is the ServerStatus of a working server.
func HealthyStatus(now datetime.ServerTimestamp) messages.ServerStatus {
	return messages.ServerStatus{Timestamp: now, Status: messages.StatusOK}
}

// API bundles the dependencies of the message handlers.
type API struct {
	Storage   repository.Storage
	JWTSecret string
	TokenTTL  time.Duration
	// Now defaults to datetime.ServerNow.
	Now func() datetime.ServerTimestamp
}

func (a *API) now() datetime.ServerTimestamp {
	if a.Now != nil {
		return a.Now()
	}
	return datetime.ServerNow()
}

// Router returns a router with every client message routed to a.
func (a *API) Router() *Router {
	r := NewRouter()
	HandlePublic(r, a.Ping)
	HandlePublic(r, a.Register)
	HandlePlayer(r, a.Decay)
	HandlePlayer(r, a.Identity)
	return r
}

// Ping reports the server status and time.
func (a *API) Ping(ctx context.Context, _ *messages.Ping, _ uint8) (messages.ServerMessage, error) {
	return HealthyStatus(a.now()), nil
}

// Register creates an account and issues its auth token.
func (a *API) Register(ctx context.Context, msg *messages.Register, _ uint8) (messages.ServerMessage, error) {
	if msg.ClientVersion == "" {
		return nil, messages.NewServerError(messages.InvalidData, "Client version is required", "", 0, 0, false)
	}
	account := models.NewAccount(a.now())
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.Storage.Write(ctx, account); err != nil {
		return nil, fmt.Errorf("write account: %w", err)
	}
	token, err := auth.Issue(a.JWTSecret, account.UserID, a.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return messages.Registered{UserID: account.UserID.String(), Token: token.Token()}, nil
}

// Decay returns the decay period starting now.
func (a *API) Decay(ctx context.Context, _ *messages.DecayQuery, _ *encryption.PublicKey, _ uint8) (messages.ServerMessage, error) {
	return messages.Decay{StartedAt: a.now(), Length: DecayLength}, nil
}

// Identity stores the player name. Once set, the identity can only be
// updated with the same public key.
func (a *API) Identity(ctx context.Context, msg *messages.Identity, pub *encryption.PublicKey, _ uint8) (messages.ServerMessage, error) {
	p, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if !msg.Name.IsEncrypted() && msg.Name.PlaintextValue() == "" {
		return nil, messages.NewServerError(messages.InvalidData, "Name is required", "", 0, 0, false)
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := repository.ReadEntity(ctx, a.Storage, models.AccountKind, models.Key{UserID: p.UserID, EntityID: p.UserID.String()}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: no account for %s", ErrUnauthenticated, p.UserID)
		}
		return nil, fmt.Errorf("read account: %w", err)
	}

	existing, err := repository.ReadEntity(ctx, a.Storage, models.IdentityKind, models.IdentityKey(p.UserID))
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("read identity: %w", err)
	case existing.PublicKey != pub.String():
		return nil, fmt.Errorf("%w: identity is bound to another key", ErrUnauthenticated)
	}

	identity := &models.PlayerIdentity{
		UserID:    p.UserID,
		Name:      msg.Name,
		PublicKey: pub.String(),
		UpdatedAt: a.now(),
	}
	if err := a.Storage.Write(ctx, identity); err != nil {
		return nil, fmt.Errorf("write identity: %w", err)
	}
	return messages.IdentityAccepted{UserID: p.UserID.String()}, nil
}
