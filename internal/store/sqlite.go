package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/notify-center/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveFilters persists the filter state for a view.
func (s *SQLiteStore) SaveFilters(
	ctx context.Context,
	view string,
	f model.FilterState,
) error {
	var typeVal sql.NullString
	if f.Type != nil {
		typeVal = sql.NullString{String: string(*f.Type), Valid: true}
	}
	var readVal sql.NullInt64
	if f.IsRead != nil {
		readVal = sql.NullInt64{Int64: int64(boolToInt(*f.IsRead)), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO view_filters (view, page, item_limit, type, is_read, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		view, f.Page, f.Limit, typeVal, readVal, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving filters for view %s: %w", view, err)
	}

	return nil
}

// GetFilters retrieves the persisted filter state for a view, or nil
// when none has been saved yet.
func (s *SQLiteStore) GetFilters(
	ctx context.Context,
	view string,
) (*model.FilterState, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT page, item_limit, type, is_read FROM view_filters WHERE view = ?",
		view,
	)

	var (
		f       model.FilterState
		typeVal sql.NullString
		readVal sql.NullInt64
	)
	err := row.Scan(&f.Page, &f.Limit, &typeVal, &readVal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting filters for view %s: %w", view, err)
	}

	if typeVal.Valid {
		t := model.NotificationType(typeVal.String)
		f.Type = &t
	}
	if readVal.Valid {
		r := readVal.Int64 != 0
		f.IsRead = &r
	}

	return &f, nil
}

// ReplaceSnapshot replaces the cached notification page and unread count
// wholesale.
func (s *SQLiteStore) ReplaceSnapshot(
	ctx context.Context,
	items []model.Notification,
	unread int,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cached_notifications"); err != nil {
		return fmt.Errorf("clearing cached notifications: %w", err)
	}

	const query = `
		INSERT INTO cached_notifications (
			id, type, title, message, is_read,
			created_at, read_at, action_url, sort_order
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing snapshot statement: %w", err)
	}
	defer stmt.Close()

	for i, n := range items {
		var readAt sql.NullTime
		if n.ReadAt != nil {
			readAt = sql.NullTime{Time: n.ReadAt.UTC(), Valid: true}
		}
		_, err = stmt.ExecContext(ctx,
			n.ID, string(n.Type), n.Title, n.Message, boolToInt(n.IsRead),
			n.CreatedAt.UTC(), readAt, n.ActionURL, i,
		)
		if err != nil {
			return fmt.Errorf("caching notification %d: %w", n.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache_state (id, unread_count, fetched_at)
		VALUES (1, ?, ?)`,
		unread, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving cache state: %w", err)
	}

	return tx.Commit()
}

// GetSnapshot retrieves the cached notification page and unread count in
// the order they were fetched.
func (s *SQLiteStore) GetSnapshot(
	ctx context.Context,
) ([]model.Notification, int, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, type, title, message, is_read, created_at, read_at, action_url
		FROM cached_notifications ORDER BY sort_order`,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("querying cached notifications: %w", err)
	}
	defer rows.Close()

	var items []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var unread int
	err = s.db.GetContext(ctx, &unread,
		"SELECT unread_count FROM cache_state WHERE id = 1",
	)
	if errors.Is(err, sql.ErrNoRows) {
		return items, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading cache state: %w", err)
	}

	return items, unread, nil
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n         model.Notification
		typeTag   string
		readInt   int
		createdAt time.Time
		readAt    sql.NullTime
	)

	err := rows.Scan(
		&n.ID, &typeTag, &n.Title, &n.Message,
		&readInt, &createdAt, &readAt, &n.ActionURL,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Type = model.NotificationType(typeTag)
	n.IsRead = readInt != 0
	n.CreatedAt = createdAt
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}

	return n, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
