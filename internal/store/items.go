package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, conn *db.DB, id int64) (*model.Item, error) {
	item, err := getItem(ctx, conn, id)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

func getItem(ctx context.Context, q querier, id int64) (*model.Item, error) {
	item := &model.Item{}
	var description, location, imagePath sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT item_id, category, description, location, image_path, created_at
		 FROM items WHERE item_id = ?`, id,
	).Scan(&item.ID, &item.Category, &description, &location, &imagePath, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.Location = location.String
	item.ImagePath = imagePath.String
	return item, nil
}

// CountReportsForItem returns how many reports reference an item.
func CountReportsForItem(ctx context.Context, conn *db.DB, itemID int64) (int, error) {
	count, err := countReportsForItem(ctx, conn, itemID)
	if err != nil {
		return 0, fmt.Errorf("counting reports for item: %w", err)
	}
	return count, nil
}

func countReportsForItem(ctx context.Context, q querier, itemID int64) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE item_id = ?`, itemID,
	).Scan(&count)
	return count, err
}

// beginItemTx starts a transaction for work that locks an item and then
// reads the reports referencing it. On MySQL it runs at READ COMMITTED so
// reads after the lock see rows committed by the previous lock holder
// rather than a snapshot taken before the lock was granted.
func beginItemTx(ctx context.Context, conn *db.DB) (*sql.Tx, error) {
	var opts *sql.TxOptions
	if conn.Dialect == db.MySQL {
		opts = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	tx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return tx, nil
}

// lockItem locks an item for the rest of the transaction, or returns
// model.ErrNotFound if the item does not exist. On MySQL this is a row
// lock; SQLite transactions already hold the database write lock from
// BEGIN (see db.Open), so there it only checks that the item exists.
func lockItem(ctx context.Context, tx *sql.Tx, dialect db.Dialect, itemID int64) error {
	query := `SELECT item_id FROM items WHERE item_id = ?`
	if dialect == db.MySQL {
		query += ` FOR UPDATE`
	}
	var id int64
	err := tx.QueryRowContext(ctx, query, itemID).Scan(&id)
	if err == sql.ErrNoRows {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("locking item: %w", err)
	}
	return nil
}
