package models

import (
	"deusvent/internal/datetime"
	"deusvent/internal/encoding"
	"deusvent/internal/encryption"
	"deusvent/internal/wire"
)

// IdentityType is the entity type of player identities.
const IdentityType = "identity"

const identityEntityID = "name"

// PlayerIdentity is the name a player chose, possibly encrypted, and the
// public key that signed it.
type PlayerIdentity struct {
	UserID    UserID                   `json:"user_id"`
	Name      encryption.SafeString    `json:"-"`
	PublicKey string                   `json:"public_key"`
	UpdatedAt datetime.ServerTimestamp `json:"updated_at"`
}

// IdentityKind decodes player identities.
var IdentityKind = Kind[*PlayerIdentity]{Type: IdentityType, Decode: decodeIdentity}

// IdentityKey returns the key of the identity entity of a user.
func IdentityKey(userID UserID) Key {
	return Key{UserID: userID, EntityID: identityEntityID}
}

func (p *PlayerIdentity) EntityType() string { return IdentityType }

func (p *PlayerIdentity) Key() Key { return IdentityKey(p.UserID) }

func (p *PlayerIdentity) MarshalItem(item Item) {
	item.SetString("name", encoding.EncodeBase94(wire.Marshal(p.Name)))
	item.SetString("public_key", p.PublicKey)
	item.SetNumber("updated_at", p.UpdatedAt.Milliseconds())
}

func decodeIdentity(key Key, item Item) (*PlayerIdentity, error) {
	encodedName, err := item.String("name")
	if err != nil {
		return nil, err
	}
	raw, err := encoding.DecodeBase94(encodedName)
	if err != nil {
		return nil, &ValidationError{Msg: "name: " + err.Error()}
	}
	var name encryption.SafeString
	if err := wire.Unmarshal(raw, &name); err != nil {
		return nil, &ValidationError{Msg: "name: " + err.Error()}
	}
	publicKey, err := item.String("public_key")
	if err != nil {
		return nil, err
	}
	updatedAt, err := item.Number("updated_at")
	if err != nil {
		return nil, err
	}
	return &PlayerIdentity{
		UserID:    key.UserID,
		Name:      name,
		PublicKey: publicKey,
		UpdatedAt: datetime.NewServerTimestamp(updatedAt),
	}, nil
}
