package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go_tube/internal/engine"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the default single-node TranscriptStore, backed by one
// database file. The single-writer connection limit serializes inserts;
// combined with the videos primary key that gives at-most-one committed
// record per video_id under concurrent ingestion.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the transcript database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("store: mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if err := initSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	slog.Info("sqlite store opened", slog.String("path", path))
	return &SQLiteStore{db: db}, nil
}

func initSQLiteSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS videos (
			video_id   TEXT PRIMARY KEY,
			url        TEXT NOT NULL,
			title      TEXT,
			indexed_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS chunks (
			video_id    TEXT NOT NULL REFERENCES videos(video_id) ON DELETE CASCADE,
			chunk_index INTEGER NOT NULL,
			text        TEXT NOT NULL,
			embedding   BLOB NOT NULL,
			start_sec   REAL NOT NULL DEFAULT 0,
			end_sec     REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (video_id, chunk_index)
		);`)
	return err
}

func (s *SQLiteStore) Exists(ctx context.Context, videoID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM videos WHERE video_id = ?`, videoID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("exists %s: %w", videoID, err))
	}
	return true, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, ref engine.VideoRef, chunks []engine.TranscriptChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO videos (video_id, url, title, indexed_at) VALUES (?, ?, ?, ?)`,
		ref.VideoID, ref.URL, ref.Title, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return engine.ErrAlreadyIndexed
		}
		return engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("insert video %s: %w", ref.VideoID, err))
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (video_id, chunk_index, text, embedding, start_sec, end_sec)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("prepare chunk insert: %w", err))
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, ref.VideoID, c.ChunkIndex, c.Text,
			encodeVector(c.Embedding), c.StartSec, c.EndSec); err != nil {
			return engine.WrapErr(engine.KindStoreWrite,
				fmt.Errorf("insert chunk %s/%d: %w", ref.VideoID, c.ChunkIndex, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("commit %s: %w", ref.VideoID, err))
	}
	engine.IncrStoreInserts()
	return nil
}

func (s *SQLiteStore) Search(ctx context.Context, queryVec []float32, k int, videoID string) ([]engine.ScoredChunk, error) {
	query := `SELECT video_id, chunk_index, text, embedding, start_sec, end_sec FROM chunks`
	var args []any
	if videoID != "" {
		query += ` WHERE video_id = ?`
		args = append(args, videoID)
	}
	query += ` ORDER BY video_id, chunk_index`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("search: %w", err))
	}
	defer rows.Close()

	var candidates []engine.TranscriptChunk
	for rows.Next() {
		var c engine.TranscriptChunk
		var blob []byte
		if err := rows.Scan(&c.VideoID, &c.ChunkIndex, &c.Text, &blob, &c.StartSec, &c.EndSec); err != nil {
			return nil, engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("scan chunk: %w", err))
		}
		c.Embedding = decodeVector(blob)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("search rows: %w", err))
	}
	return rankChunks(queryVec, candidates, k), nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&n); err != nil {
		return 0, engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("count: %w", err))
	}
	return n, nil
}

func (s *SQLiteStore) Purge(ctx context.Context, videoID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("begin purge: %w", err))
	}
	defer tx.Rollback()
	// Not every SQLite build enforces foreign keys; delete chunks explicitly.
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE video_id = ?`, videoID); err != nil {
		return engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("purge chunks %s: %w", videoID, err))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE video_id = ?`, videoID); err != nil {
		return engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("purge video %s: %w", videoID, err))
	}
	if err := tx.Commit(); err != nil {
		return engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("commit purge %s: %w", videoID, err))
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isUniqueViolation detects a primary-key conflict without depending on
// driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
