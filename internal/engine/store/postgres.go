package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// PostgresStore is a TranscriptStore backed by a pgx pool, for deployments
// where several ingesters share one index. Embeddings are stored as REAL[]
// and ranked in Go, same scoring as the SQLite backend.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres creates a pgx pool and runs schema migrations.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("transcript postgres connected", slog.String("addr", config.ConnConfig.Host))
	return s, nil
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
		slog.Info("migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, videoID string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM transcript_videos WHERE video_id = $1`, videoID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("exists %s: %w", videoID, err))
	}
	return true, nil
}

func (s *PostgresStore) Insert(ctx context.Context, ref engine.VideoRef, chunks []engine.TranscriptChunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO transcript_videos (video_id, url, title) VALUES ($1, $2, $3)`,
		ref.VideoID, ref.URL, ref.Title)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return engine.ErrAlreadyIndexed
		}
		return engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("insert video %s: %w", ref.VideoID, err))
	}

	for _, c := range chunks {
		if _, err := tx.Exec(ctx,
			`INSERT INTO transcript_chunks (video_id, chunk_index, text, embedding, start_sec, end_sec)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			ref.VideoID, c.ChunkIndex, c.Text, c.Embedding, c.StartSec, c.EndSec); err != nil {
			return engine.WrapErr(engine.KindStoreWrite,
				fmt.Errorf("insert chunk %s/%d: %w", ref.VideoID, c.ChunkIndex, err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("commit %s: %w", ref.VideoID, err))
	}
	engine.IncrStoreInserts()
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, queryVec []float32, k int, videoID string) ([]engine.ScoredChunk, error) {
	query := `SELECT video_id, chunk_index, text, embedding, start_sec, end_sec FROM transcript_chunks`
	var args []any
	if videoID != "" {
		query += ` WHERE video_id = $1`
		args = append(args, videoID)
	}
	query += ` ORDER BY video_id, chunk_index`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("search: %w", err))
	}
	defer rows.Close()

	var candidates []engine.TranscriptChunk
	for rows.Next() {
		var c engine.TranscriptChunk
		if err := rows.Scan(&c.VideoID, &c.ChunkIndex, &c.Text, &c.Embedding, &c.StartSec, &c.EndSec); err != nil {
			return nil, engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("scan chunk: %w", err))
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("search rows: %w", err))
	}
	return rankChunks(queryVec, candidates, k), nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transcript_videos`).Scan(&n); err != nil {
		return 0, engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("count: %w", err))
	}
	return n, nil
}

func (s *PostgresStore) Purge(ctx context.Context, videoID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM transcript_videos WHERE video_id = $1`, videoID); err != nil {
		return engine.WrapErr(engine.KindStoreWrite, fmt.Errorf("purge %s: %w", videoID, err))
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
