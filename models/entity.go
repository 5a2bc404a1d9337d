package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// UserID is the partition key of every entity a player owns.
type UserID uuid.UUID

// NewUserID returns a random user id.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// ParseUserID parses the canonical string form of a user id.
func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, &ValidationError{Msg: fmt.Sprintf("invalid user id %q: %v", s, err)}
	}
	return UserID(id), nil
}

func (id UserID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether the id is unset.
func (id UserID) IsZero() bool { return id == UserID{} }

// Key addresses an entity: user id as the partition key and the entity id
// which, prefixed by the entity type, forms the sort key.
type Key struct {
	UserID   UserID `json:"user_id"`
	EntityID string `json:"entity_id"`
}

// SortKey returns the "<entity_type>_<entity_id>" sort key.
func SortKey(entityType, entityID string) string {
	return entityType + "_" + entityID
}

// SplitSortKey strips the entity type prefix from a sort key.
func SplitSortKey(entityType, sortKey string) (string, error) {
	prefix := entityType + "_"
	if !strings.HasPrefix(sortKey, prefix) {
		return "", &ValidationError{Msg: fmt.Sprintf("sort key %q is not of type %s", sortKey, entityType)}
	}
	return sortKey[len(prefix):], nil
}

// ValidationError means data is invalid and cannot be written or read.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "validation error: " + e.Msg }

// Attribute is a single typed value. Exactly one field is set.
type Attribute struct {
	S *string `json:"S,omitempty"`
	N *string `json:"N,omitempty"`
}

// Item holds the attributes of a stored entity, keyed by attribute name.
type Item map[string]Attribute

// SetString stores a string attribute.
func (it Item) SetString(name, value string) {
	it[name] = Attribute{S: &value}
}

// SetNumber stores a number attribute.
func (it Item) SetNumber(name string, value uint64) {
	n := strconv.FormatUint(value, 10)
	it[name] = Attribute{N: &n}
}

// String reads a string attribute.
func (it Item) String(name string) (string, error) {
	attr, ok := it[name]
	if !ok {
		return "", &ValidationError{Msg: name + " attribute not found"}
	}
	if attr.S == nil {
		return "", &ValidationError{Msg: name + " is not a string attribute"}
	}
	return *attr.S, nil
}

// Number reads a number attribute.
func (it Item) Number(name string) (uint64, error) {
	attr, ok := it[name]
	if !ok {
		return 0, &ValidationError{Msg: name + " attribute not found"}
	}
	if attr.N == nil {
		return 0, &ValidationError{Msg: name + " is not a number attribute"}
	}
	v, err := strconv.ParseUint(*attr.N, 10, 64)
	if err != nil {
		return 0, &ValidationError{Msg: name + " cannot be parsed as number"}
	}
	return v, nil
}

// Entity is anything stored under a user partition.
type Entity interface {
	// EntityType is the static sort key prefix.
	EntityType() string
	Key() Key
	// MarshalItem writes the entity attributes; keys are added by storage.
	MarshalItem(item Item)
}

// Decoder restores an entity from its key and attributes.
type Decoder[T Entity] func(key Key, item Item) (T, error)

// Kind pairs an entity type with its decoder.
type Kind[T Entity] struct {
	Type   string
	Decode Decoder[T]
}
