package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/google/btree"

	"deusvent/models"
)

type memoryRecord struct {
	pk   string
	sk   string
	item models.Item
}

func lessRecord(a, b memoryRecord) bool {
	if a.pk != b.pk {
		return a.pk < b.pk
	}
	return a.sk < b.sk
}

// MemoryStorage keeps entities in an ordered in-memory tree. It's meant for
// tests and local development.
type MemoryStorage struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[memoryRecord]
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{tree: btree.NewG(16, lessRecord)}
}

func (s *MemoryStorage) Write(ctx context.Context, e models.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := e.Key()
	item := models.Item{}
	e.MarshalItem(item)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.ReplaceOrInsert(memoryRecord{
		pk:   key.UserID.String(),
		sk:   models.SortKey(e.EntityType(), key.EntityID),
		item: item,
	})
	return nil
}

func (s *MemoryStorage) Read(ctx context.Context, key models.Key, entityType string) (models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.tree.Get(memoryRecord{pk: key.UserID.String(), sk: models.SortKey(entityType, key.EntityID)})
	if !ok {
		return nil, ErrNotFound
	}
	return cloneItem(r.item), nil
}

func (s *MemoryStorage) Find(ctx context.Context, userID models.UserID, entityType string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pk := userID.String()
	prefix := entityType + "_"

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	var err error
	s.tree.AscendGreaterOrEqual(memoryRecord{pk: pk, sk: prefix}, func(r memoryRecord) bool {
		if r.pk != pk || !strings.HasPrefix(r.sk, prefix) {
			return false
		}
		var rec Record
		rec, err = recordFromItem(userID, entityType, r.sk, cloneItem(r.item))
		if err != nil {
			return false
		}
		out = append(out, rec)
		return true
	})
	return out, err
}

func (s *MemoryStorage) Delete(ctx context.Context, userID models.UserID, entityType, entityID string) (int, error) {
	if err := validateDelete(entityType, entityID); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	pk := userID.String()
	prefix, exact := deletePrefix(entityType, entityID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if exact {
		if _, ok := s.tree.Delete(memoryRecord{pk: pk, sk: prefix}); ok {
			return 1, nil
		}
		return 0, nil
	}
	var doomed []memoryRecord
	s.tree.AscendGreaterOrEqual(memoryRecord{pk: pk, sk: prefix}, func(r memoryRecord) bool {
		if r.pk != pk || !strings.HasPrefix(r.sk, prefix) {
			return false
		}
		doomed = append(doomed, r)
		return true
	})
	for _, r := range doomed {
		s.tree.Delete(r)
	}
	return len(doomed), nil
}

// Len returns the number of stored entities.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

func cloneItem(item models.Item) models.Item {
	out := make(models.Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
