package sqlite

var schema = []string{
	`CREATE TABLE IF NOT EXISTS zones (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS branches (
		id      TEXT PRIMARY KEY,
		zone_id TEXT NOT NULL REFERENCES zones(id),
		name    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lines (
		id        TEXT PRIMARY KEY,
		branch_id TEXT NOT NULL REFERENCES branches(id),
		name      TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS farmers (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		phone     TEXT NOT NULL DEFAULT '',
		zone_id   TEXT NOT NULL REFERENCES zones(id),
		branch_id TEXT NOT NULL REFERENCES branches(id),
		line_id   TEXT NOT NULL REFERENCES lines(id)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('admin', 'executive')),
		zone_id       TEXT REFERENCES zones(id),
		branch_id     TEXT REFERENCES branches(id),
		active_flag   INTEGER NOT NULL DEFAULT 1,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_permissions (
		user_id    TEXT NOT NULL REFERENCES users(id),
		permission TEXT NOT NULL,
		PRIMARY KEY (user_id, permission)
	)`,
	`CREATE TABLE IF NOT EXISTS complaints (
		id            TEXT PRIMARY KEY,
		ticket_number TEXT NOT NULL UNIQUE,
		title         TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		category      TEXT NOT NULL,
		priority      TEXT NOT NULL CHECK (priority IN ('normal', 'urgent', 'critical')),
		status        TEXT NOT NULL CHECK (status IN ('open', 'progress', 'closed', 'reopen')),
		zone_id       TEXT NOT NULL REFERENCES zones(id),
		branch_id     TEXT NOT NULL REFERENCES branches(id),
		line_id       TEXT NOT NULL REFERENCES lines(id),
		farmer_id     TEXT NOT NULL REFERENCES farmers(id),
		assignee_id   TEXT REFERENCES users(id),
		created_by    TEXT NOT NULL,
		sla_deadline  TEXT NOT NULL,
		version       INTEGER NOT NULL DEFAULT 1,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		closed_at     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS complaints_scope_idx ON complaints (zone_id, branch_id)`,
	`CREATE INDEX IF NOT EXISTS complaints_status_deadline_idx ON complaints (status, sla_deadline)`,
	`CREATE TABLE IF NOT EXISTS call_logs (
		seq                            INTEGER PRIMARY KEY AUTOINCREMENT,
		id                             TEXT NOT NULL UNIQUE,
		complaint_id                   TEXT NOT NULL REFERENCES complaints(id),
		outcome                        TEXT NOT NULL CHECK (outcome IN ('connected', 'no_answer', 'busy', 'wrong_number')),
		remarks                        TEXT NOT NULL DEFAULT '',
		duration_minutes               INTEGER NOT NULL CHECK (duration_minutes >= 0),
		next_follow_up_date            TEXT,
		asserted_status                TEXT NOT NULL,
		asserted_status_effective_date TEXT NOT NULL,
		caller_id                      TEXT NOT NULL,
		created_at                     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS call_logs_complaint_idx ON call_logs (complaint_id, seq)`,
	`CREATE TABLE IF NOT EXISTS complaint_status_history (
		seq            INTEGER PRIMARY KEY AUTOINCREMENT,
		id             TEXT NOT NULL UNIQUE,
		complaint_id   TEXT NOT NULL REFERENCES complaints(id),
		from_status    TEXT NOT NULL,
		to_status      TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		changed_by     TEXT NOT NULL,
		source         TEXT NOT NULL,
		call_log_id    TEXT REFERENCES call_logs(id),
		created_at     TEXT NOT NULL
	)`,
}
