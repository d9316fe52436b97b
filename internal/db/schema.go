package db

import "context"

// Idempotent first-boot DDL, applied at startup. Not a migration engine.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	full_name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users (email);

CREATE TABLE IF NOT EXISTS coords (
	id BIGSERIAL PRIMARY KEY,
	latitude NUMERIC(9,6) NOT NULL,
	longitude NUMERIC(9,6) NOT NULL,
	height INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS levels (
	id BIGSERIAL PRIMARY KEY,
	winter TEXT NOT NULL DEFAULT '',
	summer TEXT NOT NULL DEFAULT '',
	autumn TEXT NOT NULL DEFAULT '',
	spring TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS pereval (
	id BIGSERIAL PRIMARY KEY,
	beauty_title TEXT NOT NULL,
	title TEXT NOT NULL,
	other_titles TEXT NOT NULL DEFAULT '',
	connect TEXT NOT NULL DEFAULT '',
	add_time TIMESTAMPTZ NOT NULL,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
	coords_id BIGINT NOT NULL REFERENCES coords(id) ON DELETE RESTRICT,
	levels_id BIGINT NOT NULL REFERENCES levels(id) ON DELETE RESTRICT,
	status TEXT NOT NULL DEFAULT 'new'
		CHECK (status IN ('new','pending','accepted','rejected')),
	moderator_note TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS images (
	id BIGSERIAL PRIMARY KEY,
	pereval_id BIGINT NOT NULL REFERENCES pereval(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	data BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func EnsureSchema(ctx context.Context, q Querier) error {
	_, err := q.Exec(ctx, schema)
	return err
}
