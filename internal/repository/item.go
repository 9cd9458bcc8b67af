package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"resale/monitor/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ItemRepository persists the item record produced by one reconciliation.
type ItemRepository interface {
	UpdateItem(ctx context.Context, id string, item domain.Item) error
}

type itemRepository struct {
	db    *pgxpool.Pool
	table string
}

func NewItemRepository(db *pgxpool.Pool, table string) ItemRepository {
	return &itemRepository{
		db:    db,
		table: table,
	}
}

// UpdateItem writes the full item payload keyed by the internal id. The id
// itself is stripped from the payload; it is immutable.
func (r *itemRepository) UpdateItem(ctx context.Context, id string, item domain.Item) error {
	payload, err := updatePayload(item)
	if err != nil {
		return fmt.Errorf("failed to build update payload for item %s: %w", id, err)
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (id, data)
	VALUES ($1, $2)
	ON CONFLICT (id)
	DO UPDATE SET data = $2`, r.table)

	if _, err := r.db.Exec(ctx, query, id, payload); err != nil {
		return fmt.Errorf("failed to save item %s: %w", id, err)
	}

	return nil
}

func updatePayload(item domain.Item) (map[string]any, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	delete(payload, "id")

	return payload, nil
}
