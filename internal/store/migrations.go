package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS view_filters (
	view       TEXT PRIMARY KEY,
	page       INTEGER NOT NULL DEFAULT 1,
	item_limit INTEGER NOT NULL DEFAULT 10,
	type       TEXT,
	is_read    INTEGER,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cached_notifications (
	id          INTEGER PRIMARY KEY,
	type        TEXT NOT NULL,
	title       TEXT NOT NULL,
	message     TEXT NOT NULL,
	is_read     INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	read_at     DATETIME,
	action_url  TEXT NOT NULL DEFAULT '',
	sort_order  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cache_state (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	unread_count INTEGER NOT NULL DEFAULT 0,
	fetched_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_cached_notifications_order
	ON cached_notifications(sort_order);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
