package kv

// schemaDDL creates the key-value table used by the sqlite backend.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS kv_entries (
		kv_key     TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		version    INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL
	)`,
}

const (
	sqlSelectEntry = `SELECT value, version FROM kv_entries WHERE kv_key = ?`

	sqlUpsertEntry = `INSERT INTO kv_entries (kv_key, value, version, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(kv_key) DO UPDATE SET
			value = excluded.value,
			version = kv_entries.version + 1,
			updated_at = excluded.updated_at`

	sqlInsertEntryIfAbsent = `INSERT INTO kv_entries (kv_key, value, version, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(kv_key) DO NOTHING`

	sqlUpdateEntryIfVersion = `UPDATE kv_entries
		SET value = ?, version = version + 1, updated_at = ?
		WHERE kv_key = ? AND version = ?`
)
