// Package history persists served predictions so they can be listed later.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("prediction not found")

type Item struct {
	Label           string  `json:"label"`
	Confidence      float64 `json:"confidence"`
	CaloriesPer100g *int    `json:"kalori_per_100g"`
}

type Record struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	ImageURL      string    `json:"image_url,omitempty"`
	TotalCalories int       `json:"total_estimasi_kalori"`
	CreatedAt     time.Time `json:"created_at"`
	Items         []Item    `json:"deteksi"`
}

// Store is the prediction history used by the HTTP handlers.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
}

// Repository implements Store on SQLite.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Save writes the prediction and its items in one transaction.
func (r *Repository) Save(ctx context.Context, rec *Record) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO predictions (id, filename, image_url, total_calories, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.Filename, rec.ImageURL, rec.TotalCalories, rec.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prediction_items (prediction_id, position, label, confidence, calories_per_100g)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, item := range rec.Items {
		var kcal sql.NullInt64
		if item.CaloriesPer100g != nil {
			kcal = sql.NullInt64{Int64: int64(*item.CaloriesPer100g), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, i, item.Label, item.Confidence, kcal); err != nil {
			return fmt.Errorf("failed to insert prediction item: %w", err)
		}
	}

	return tx.Commit()
}

// Get returns one prediction with its items, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := r.db.conn.QueryRowContext(ctx, `
		SELECT id, filename, image_url, total_calories, created_at
		FROM predictions WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Filename, &rec.ImageURL, &rec.TotalCalories, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction: %w", err)
	}

	items, err := r.items(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Items = items
	return &rec, nil
}

// List returns up to limit predictions, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]Record, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT id, filename, image_url, total_calories, created_at
		FROM predictions ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.ImageURL, &rec.TotalCalories, &rec.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read predictions: %w", err)
	}
	// Release the only connection before loading items.
	rows.Close()

	for i := range records {
		items, err := r.items(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Items = items
	}
	return records, nil
}

func (r *Repository) items(ctx context.Context, predictionID string) ([]Item, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT label, confidence, calories_per_100g
		FROM prediction_items WHERE prediction_id = ? ORDER BY position
	`, predictionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		var kcal sql.NullInt64
		if err := rows.Scan(&item.Label, &item.Confidence, &kcal); err != nil {
			return nil, fmt.Errorf("failed to scan prediction item: %w", err)
		}
		if kcal.Valid {
			v := int(kcal.Int64)
			item.CaloriesPer100g = &v
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
