// Package migrations applies the database schema at startup. Statements
// are idempotent so repeated boots are safe.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS tb_user (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL,
		password TEXT NOT NULL,
		nick_name TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		del_yn CHAR(1) NOT NULL DEFAULT 'N',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_user_email
		ON tb_user (lower(email)) WHERE del_yn = 'N'`,
	`CREATE TABLE IF NOT EXISTS tb_post (
		id BIGSERIAL PRIMARY KEY,
		author_id BIGINT NOT NULL REFERENCES tb_user (id),
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		img_url TEXT NOT NULL DEFAULT '',
		del_yn CHAR(1) NOT NULL DEFAULT 'N',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_post_author ON tb_post (author_id)`,
	`CREATE TABLE IF NOT EXISTS tb_comment (
		id BIGSERIAL PRIMARY KEY,
		post_id BIGINT NOT NULL REFERENCES tb_post (id),
		author_id BIGINT NOT NULL REFERENCES tb_user (id),
		content TEXT NOT NULL,
		img_url TEXT NOT NULL DEFAULT '',
		del_yn CHAR(1) NOT NULL DEFAULT 'N',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comment_post ON tb_comment (post_id)`,
	`CREATE TABLE IF NOT EXISTS tb_like (
		post_id BIGINT NOT NULL REFERENCES tb_post (id),
		user_id BIGINT NOT NULL REFERENCES tb_user (id),
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (post_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tb_view (
		post_id BIGINT NOT NULL REFERENCES tb_post (id),
		user_id BIGINT NOT NULL REFERENCES tb_user (id),
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (post_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tb_image (
		id BIGSERIAL PRIMARY KEY,
		url TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_size BIGINT NOT NULL DEFAULT 0,
		mime_type TEXT NOT NULL DEFAULT '',
		entity_type TEXT NOT NULL DEFAULT 'temp',
		entity_id BIGINT NOT NULL DEFAULT 0,
		ord INT NOT NULL DEFAULT 0,
		uploaded_by BIGINT NOT NULL REFERENCES tb_user (id),
		del_yn CHAR(1) NOT NULL DEFAULT 'N',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_image_entity ON tb_image (entity_type, entity_id)`,
}

// Apply executes every schema statement in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
