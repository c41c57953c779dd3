package history

const schema = `
PRAGMA foreign_keys = ON;

-- Runs: one row per recorded export
CREATE TABLE IF NOT EXISTS runs (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,
    source TEXT NOT NULL,
    generated_at TEXT,
    recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    total_pages INTEGER NOT NULL DEFAULT 0,
    unique_urls INTEGER NOT NULL DEFAULT 0,
    skipped_records INTEGER NOT NULL DEFAULT 0,
    page_list_unavailable BOOLEAN DEFAULT 0,

    -- Full export document as JSON
    document TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);

-- Run counts: flattened grouped counts for per-key trends
CREATE TABLE IF NOT EXISTS run_counts (
    run_id TEXT NOT NULL,
    dimension TEXT NOT NULL,  -- domain, content_type, extension, status
    key TEXT NOT NULL,
    count INTEGER NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    UNIQUE(run_id, dimension, key)
);

CREATE INDEX IF NOT EXISTS idx_run_counts_key ON run_counts(dimension, key);
`
