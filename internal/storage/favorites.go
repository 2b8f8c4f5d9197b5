package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ngone6325/appfac/model"
)

// SQLiteStore is the sqlite FavoritesStore.
type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

var _ model.FavoritesStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at path and migrates it.
func NewSQLiteStore(path string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("favorites store ready")
	return &SQLiteStore{db: db, log: log}, nil
}

// Put inserts fav unless the breed is already stored, and returns the stored row.
func (s *SQLiteStore) Put(ctx context.Context, fav model.Favorite) (model.Favorite, error) {
	if fav.ID == uuid.Nil {
		fav.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO favorites (id, breed, added_at) VALUES (?, ?, ?) ON CONFLICT(breed) DO NOTHING`,
		fav.ID.String(), fav.Breed, fav.AddedAt.UTC().UnixNano())
	if err != nil {
		return model.Favorite{}, fmt.Errorf("insert favorite: %w", err)
	}
	stored, ok, err := s.Get(ctx, fav.Breed)
	if err != nil {
		return model.Favorite{}, err
	}
	if !ok {
		return model.Favorite{}, fmt.Errorf("favorite %q vanished after insert", fav.Breed)
	}
	return stored, nil
}

// Delete removes breed and reports whether it was stored.
func (s *SQLiteStore) Delete(ctx context.Context, breed string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE breed = ?`, breed)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns favorites oldest first.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, breed, added_at FROM favorites ORDER BY added_at, breed`)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var out []model.Favorite
	for rows.Next() {
		fav, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fav)
	}
	return out, rows.Err()
}

// Get returns the favorite for breed, if any.
func (s *SQLiteStore) Get(ctx context.Context, breed string) (model.Favorite, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, breed, added_at FROM favorites WHERE breed = ?`, breed)
	fav, err := scanFavorite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Favorite{}, false, nil
	}
	if err != nil {
		return model.Favorite{}, false, err
	}
	return fav, true, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFavorite(sc scanner) (model.Favorite, error) {
	var (
		id      string
		fav     model.Favorite
		addedAt int64
	)
	if err := sc.Scan(&id, &fav.Breed, &addedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Favorite{}, err
		}
		return model.Favorite{}, fmt.Errorf("scan favorite: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return model.Favorite{}, fmt.Errorf("scan favorite id %q: %w", id, err)
	}
	fav.ID = parsed
	fav.AddedAt = time.Unix(0, addedAt).UTC()
	return fav, nil
}
