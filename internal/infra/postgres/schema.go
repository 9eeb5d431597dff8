package postgres

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		email TEXT,
		name TEXT,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS transactions (
		transaction_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		description VARCHAR(255) NOT NULL,
		category VARCHAR(32) NOT NULL,
		amount NUMERIC(14,2) NOT NULL CHECK (amount >= 0),
		transaction_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, transaction_date);

	CREATE TABLE IF NOT EXISTS goals (
		user_id TEXT NOT NULL,
		month SMALLINT NOT NULL CHECK (month BETWEEN 1 AND 12),
		year INTEGER NOT NULL,
		monthly_amount NUMERIC(14,2) NOT NULL CHECK (monthly_amount > 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, month, year)
	);

	CREATE TABLE IF NOT EXISTS notifications (
		notification_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at DESC);
`
