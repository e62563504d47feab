package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upInit, downInit)
}

func upInit(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR NOT NULL UNIQUE,
		display_name VARCHAR,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE TABLE posts (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		topic_summary VARCHAR NOT NULL DEFAULT '',
		platform VARCHAR NOT NULL,
		status VARCHAR NOT NULL DEFAULT 'draft',
		content TEXT NOT NULL DEFAULT '',
		script TEXT,
		tone VARCHAR,
		length VARCHAR,
		image_url VARCHAR,
		metadata TEXT,
		scheduled_at TIMESTAMP WITH TIME ZONE,
		published_at TIMESTAMP WITH TIME ZONE,
		external_post_id VARCHAR,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
	CREATE INDEX idx_posts_due ON posts (status, scheduled_at);

	CREATE TABLE publish_logs (
		id BIGSERIAL PRIMARY KEY,
		post_id BIGINT NOT NULL REFERENCES posts(id),
		platform VARCHAR NOT NULL,
		succeeded BOOLEAN NOT NULL,
		error_message TEXT,
		notified_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
	CREATE INDEX idx_publish_logs_post ON publish_logs (post_id);

	CREATE TABLE social_credentials (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		platform VARCHAR NOT NULL,
		credential_json TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
		UNIQUE (user_id, platform)
	);

	CREATE TABLE post_series (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		topic_detail TEXT NOT NULL,
		num_posts INTEGER NOT NULL,
		options TEXT,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downInit(tx *sql.Tx) error {
	_, err := tx.Exec(`
	DROP TABLE post_series;
	DROP TABLE social_credentials;
	DROP TABLE publish_logs;
	DROP TABLE posts;
	DROP TABLE users;
	`)
	if err != nil {
		return err
	}
	return nil
}
