// Package vector implements the semantic matcher over the strong_reasons
// table: pgvector cosine distance against the curated reference corpus of
// qualifying reasons.
package vector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/coelhoxyz/lead-qualifier-agent/internal/db"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/funnel"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/llm"
)

type Store struct {
	db       *db.DB
	embedder llm.Embedder
	log      *zap.Logger
}

func New(database *db.DB, embedder llm.Embedder, log *zap.Logger) *Store {
	return &Store{db: database, embedder: embedder, log: log}
}

// Nearest embeds the query and returns up to k reference reasons ordered by
// ascending cosine distance.
func (s *Store) Nearest(ctx context.Context, query string, k int) ([]funnel.Match, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT content, embedding <=> $1 AS distance
		FROM strong_reasons
		ORDER BY embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(vec), k,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer rows.Close()

	var matches []funnel.Match
	for rows.Next() {
		var m funnel.Match
		if err := rows.Scan(&m.Content, &m.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Add embeds and inserts reference reasons. Used by the seed command.
func (s *Store) Add(ctx context.Context, texts []string) error {
	for _, text := range texts {
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("failed to embed %q: %w", text, err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO strong_reasons (id, content, embedding, metadata)
			VALUES ($1, $2, $3, '{}')`,
			uuid.NewString(), text, pgvector.NewVector(vec),
		); err != nil {
			return fmt.Errorf("failed to insert %q: %w", text, err)
		}
		s.log.Info("seeded reference reason", zap.String("content", text))
	}
	return nil
}
