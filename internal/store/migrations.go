package store

// migrations is the ordered schema history. Version N is migrations[N-1]; each
// group runs in one transaction.
var migrations = [][]string{
	// 1: files, types, relationships
	{
		`CREATE TABLE files (
			path TEXT PRIMARY KEY,
			hash TEXT NOT NULL,
			indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE types (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
			line_start INTEGER NOT NULL,
			line_end INTEGER NOT NULL
		)`,
		`CREATE INDEX idx_types_file ON types(file_path)`,
		`CREATE INDEX idx_types_name ON types(name)`,
		`CREATE TABLE relationships (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			symbol TEXT NOT NULL,
			label TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX idx_relationships_file ON relationships(file_path)`,
	},
	// 2: unquoted lookup keys
	{
		`ALTER TABLE relationships ADD COLUMN source_key TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE relationships ADD COLUMN target_key TEXT NOT NULL DEFAULT ''`,
		`UPDATE relationships SET source_key = TRIM(source, '"'), target_key = TRIM(target, '"')`,
		`CREATE INDEX idx_relationships_source_key ON relationships(source_key)`,
		`CREATE INDEX idx_relationships_target_key ON relationships(target_key)`,
	},
}
