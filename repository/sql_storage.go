package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"deusvent/models"
)

// SQLStorage keeps entities in the SQLite "entities" table, attributes
// serialized as JSON.
type SQLStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLStorage)(nil)

func NewSQLStorage(db *sql.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

func (s *SQLStorage) Write(ctx context.Context, e models.Entity) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	key := e.Key()
	item := models.Item{}
	e.MarshalItem(item)
	attrs, err := json.Marshal(item)
	if err != nil {
		return &ValidationError{Msg: err.Error()}
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO entities (pk, sk, attributes) VALUES (?, ?, ?)
		ON CONFLICT(pk, sk) DO UPDATE SET attributes = excluded.attributes, updated_at = CURRENT_TIMESTAMP`,
		key.UserID.String(), models.SortKey(e.EntityType(), key.EntityID), string(attrs))
	if err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

func (s *SQLStorage) Read(ctx context.Context, key models.Key, entityType string) (models.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var attrs string
	err := s.db.QueryRowContext(ctx, `SELECT attributes FROM entities WHERE pk = ? AND sk = ?`,
		key.UserID.String(), models.SortKey(entityType, key.EntityID)).Scan(&attrs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &IOError{Op: "read", Err: err}
	}
	return decodeAttributes(attrs)
}

func (s *SQLStorage) Find(ctx context.Context, userID models.UserID, entityType string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	prefix := entityType + "_"
	rows, err := s.db.QueryContext(ctx, `SELECT sk, attributes FROM entities
		WHERE pk = ? AND substr(sk, 1, length(?)) = ? ORDER BY sk`,
		userID.String(), prefix, prefix)
	if err != nil {
		return nil, &IOError{Op: "find", Err: err}
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var sk, attrs string
		if err := rows.Scan(&sk, &attrs); err != nil {
			return nil, &IOError{Op: "find", Err: err}
		}
		item, err := decodeAttributes(attrs)
		if err != nil {
			return nil, err
		}
		rec, err := recordFromItem(userID, entityType, sk, item)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &IOError{Op: "find", Err: err}
	}
	return out, nil
}

func (s *SQLStorage) Delete(ctx context.Context, userID models.UserID, entityType, entityID string) (int, error) {
	if err := validateDelete(entityType, entityID); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	pk := userID.String()
	prefix, exact := deletePrefix(entityType, entityID)
	var (
		res sql.Result
		err error
	)
	switch {
	case exact:
		res, err = s.db.ExecContext(ctx, `DELETE FROM entities WHERE pk = ? AND sk = ?`, pk, prefix)
	case prefix == "":
		res, err = s.db.ExecContext(ctx, `DELETE FROM entities WHERE pk = ?`, pk)
	default:
		res, err = s.db.ExecContext(ctx, `DELETE FROM entities WHERE pk = ? AND substr(sk, 1, length(?)) = ?`, pk, prefix, prefix)
	}
	if err != nil {
		return 0, &IOError{Op: "delete", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &IOError{Op: "delete", Err: err}
	}
	return int(n), nil
}

func decodeAttributes(attrs string) (models.Item, error) {
	item := models.Item{}
	if err := json.Unmarshal([]byte(attrs), &item); err != nil {
		return nil, &ValidationError{Msg: "attributes: " + err.Error()}
	}
	return item, nil
}
