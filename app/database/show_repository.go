package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const showColumns = `id, title, season_episode, download_link, is_streamable,
	poster, description, popularity, created_at`

var _ ShowRepository = (*SQLShowRepository)(nil)

// SQLShowRepository stores shows in the relational "shows" table. The unique
// index on title_key enforces one show per title across concurrent writers.
type SQLShowRepository struct {
	db *DB
}

func NewSQLShowRepository(db *DB) *SQLShowRepository {
	return &SQLShowRepository{db: db}
}

func (r *SQLShowRepository) Exists(ctx context.Context, title string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`SELECT 1 FROM shows WHERE title_key = ? LIMIT 1`),
		TitleKey(title)).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check show existence: %w", err)
	}
	return true, nil
}

func (r *SQLShowRepository) Insert(ctx context.Context, show *Show) (*Show, error) {
	stored := *show
	stored.CreatedAt = time.Now().UTC()

	var id int64
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO shows (
			title, title_key, season_episode, download_link, is_streamable,
			poster, description, popularity, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), stored.Title, TitleKey(stored.Title), stored.SeasonEpisode, stored.DownloadLink,
		stored.IsStreamable, stored.Poster, stored.Description, stored.Popularity,
		stored.CreatedAt).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("show %q: %w", show.Title, ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert show: %w", err)
	}

	stored.ID = strconv.FormatInt(id, 10)
	return &stored, nil
}

func (r *SQLShowRepository) ListAll(ctx context.Context) ([]Show, error) {
	return r.queryShows(ctx, `SELECT `+showColumns+` FROM shows ORDER BY id ASC`)
}

func (r *SQLShowRepository) ListTopByPopularity(ctx context.Context, limit int) ([]Show, error) {
	if limit <= 0 {
		return []Show{}, nil
	}
	return r.queryShows(ctx,
		`SELECT `+showColumns+` FROM shows ORDER BY popularity DESC, id ASC LIMIT ?`, limit)
}

func (r *SQLShowRepository) GetByID(ctx context.Context, id string) (*Show, error) {
	rowID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, nil
	}

	show, err := scanShow(r.db.QueryRowContext(ctx,
		r.db.Rebind(`SELECT `+showColumns+` FROM shows WHERE id = ?`), rowID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get show: %w", err)
	}
	return &show, nil
}

func (r *SQLShowRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count shows: %w", err)
	}
	return count, nil
}

func (r *SQLShowRepository) Close() error {
	return r.db.Close()
}

func (r *SQLShowRepository) queryShows(ctx context.Context, query string, args ...any) ([]Show, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shows: %w", err)
	}
	defer rows.Close()

	shows := []Show{}
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan show row: %w", err)
		}
		shows = append(shows, show)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating show rows: %w", err)
	}

	return shows, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShow(row rowScanner) (Show, error) {
	var (
		show Show
		id   int64
	)
	err := row.Scan(&id, &show.Title, &show.SeasonEpisode, &show.DownloadLink,
		&show.IsStreamable, &show.Poster, &show.Description, &show.Popularity,
		&show.CreatedAt)
	if err != nil {
		return Show{}, err
	}
	show.ID = strconv.FormatInt(id, 10)
	return show, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	return false
}
