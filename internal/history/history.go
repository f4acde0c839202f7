package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned for unknown generation IDs
var ErrNotFound = errors.New("generation not found")

// DefaultListLimit caps List when no limit is given
const DefaultListLimit = 50

// Generation is one successfully rendered projection
type Generation struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Model     string       `json:"model"`
	Points    [][3]float64 `json:"points"`
	Labels    []string     `json:"labels"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Store keeps generations in a SQLite database
type Store struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS generations (
    id         TEXT PRIMARY KEY,
    text       TEXT NOT NULL,
    model      TEXT NOT NULL,
    points     TEXT NOT NULL,
    labels     TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS generations_created_at ON generations (created_at DESC);`

// Open opens (creating if needed) the history database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record stores a generation and assigns it an ID
func (s *Store) Record(ctx context.Context, text, model string, points [][3]float64, labels []string) error {
	_, err := s.Insert(ctx, &Generation{
		Text:   text,
		Model:  model,
		Points: points,
		Labels: labels,
	})
	return err
}

// Insert stores g, filling in ID and CreatedAt
func (s *Store) Insert(ctx context.Context, g *Generation) (*Generation, error) {
	g.ID = uuid.New().String()
	g.CreatedAt = time.Now().UTC()

	points, err := json.Marshal(g.Points)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal points: %w", err)
	}
	labels, err := json.Marshal(g.Labels)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal labels: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO generations (id, text, model, points, labels, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		g.ID, g.Text, g.Model, string(points), string(labels), g.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert generation: %w", err)
	}
	return g, nil
}

// List returns the most recent generations, newest first
func (s *Store) List(ctx context.Context, limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, text, model, points, labels, created_at FROM generations ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	generations := []Generation{}
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		generations = append(generations, *g)
	}
	return generations, rows.Err()
}

// Get returns the generation with the given ID
func (s *Store) Get(ctx context.Context, id string) (*Generation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, text, model, points, labels, created_at FROM generations WHERE id = ?",
		id,
	)
	g, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanGeneration(row scanner) (*Generation, error) {
	var (
		g              Generation
		points, labels string
		createdAtNanos int64
	)
	if err := row.Scan(&g.ID, &g.Text, &g.Model, &points, &labels, &createdAtNanos); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read generation: %w", err)
	}
	if err := json.Unmarshal([]byte(points), &g.Points); err != nil {
		return nil, fmt.Errorf("failed to parse points of %s: %w", g.ID, err)
	}
	if err := json.Unmarshal([]byte(labels), &g.Labels); err != nil {
		return nil, fmt.Errorf("failed to parse labels of %s: %w", g.ID, err)
	}
	g.CreatedAt = time.Unix(0, createdAtNanos).UTC()
	return &g, nil
}
