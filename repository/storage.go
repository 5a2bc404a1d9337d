package repository

import (
	"context"
	"errors"
	"fmt"

	"deusvent/models"
)

// ErrNotFound is returned when the requested entity doesn't exist.
var ErrNotFound = errors.New("entity not found")

// ValidationError means data is invalid and cannot be written or read.
type ValidationError = models.ValidationError

// IOError is a failed storage request, e.g. a network error. Callers may
// retry it.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

// Record is a stored item with its decoded key.
type Record struct {
	Key  models.Key
	Item models.Item
}

// Storage keeps user entities: the user id is the partition key and
// "<entity_type>_<entity_id>" is the sort key.
type Storage interface {
	// Write stores the entity, replacing a previous version.
	Write(ctx context.Context, e models.Entity) error
	// Read returns the attributes of a single entity or ErrNotFound.
	Read(ctx context.Context, key models.Key, entityType string) (models.Item, error)
	// Find returns every entity of the type in the user partition ordered
	// by sort key.
	Find(ctx context.Context, userID models.UserID, entityType string) ([]Record, error)
	// Delete removes entities from the user partition. An empty entityType
	// deletes the whole partition, an empty entityID every entity of the
	// type. It returns the number of deleted entities.
	Delete(ctx context.Context, userID models.UserID, entityType, entityID string) (int, error)
}

// ReadEntity reads and decodes a single entity.
func ReadEntity[T models.Entity](ctx context.Context, s Storage, kind models.Kind[T], key models.Key) (T, error) {
	var zero T
	item, err := s.Read(ctx, key, kind.Type)
	if err != nil {
		return zero, err
	}
	return kind.Decode(key, item)
}

// FindEntities reads and decodes every entity of the kind owned by a user.
func FindEntities[T models.Entity](ctx context.Context, s Storage, kind models.Kind[T], userID models.UserID) ([]T, error) {
	records, err := s.Find(ctx, userID, kind.Type)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		e, err := kind.Decode(r.Key, r.Item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// DeleteUserData deletes every entity of a user.
func DeleteUserData(ctx context.Context, s Storage, userID models.UserID) (int, error) {
	return s.Delete(ctx, userID, "", "")
}

// DeleteEntities deletes every entity of the type owned by a user.
func DeleteEntities(ctx context.Context, s Storage, userID models.UserID, entityType string) (int, error) {
	if entityType == "" {
		return 0, &ValidationError{Msg: "entity type is required"}
	}
	return s.Delete(ctx, userID, entityType, "")
}

// DeleteEntity deletes a single entity.
func DeleteEntity(ctx context.Context, s Storage, e models.Entity) (int, error) {
	key := e.Key()
	return s.Delete(ctx, key.UserID, e.EntityType(), key.EntityID)
}

func validateDelete(entityType, entityID string) error {
	if entityType == "" && entityID != "" {
		return &ValidationError{Msg: "cannot delete by sort key without entity name"}
	}
	return nil
}

// deletePrefix returns the sort key prefix matched by a delete request.
// An exact entity has no trailing separator so callers compare equality.
func deletePrefix(entityType, entityID string) (prefix string, exact bool) {
	switch {
	case entityType == "":
		return "", false
	case entityID == "":
		return entityType + "_", false
	default:
		return models.SortKey(entityType, entityID), true
	}
}

func recordFromItem(userID models.UserID, entityType, sortKey string, item models.Item) (Record, error) {
	entityID, err := models.SplitSortKey(entityType, sortKey)
	if err != nil {
		return Record{}, err
	}
	return Record{Key: models.Key{UserID: userID, EntityID: entityID}, Item: item}, nil
}
