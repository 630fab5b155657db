package models

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
)

type ShopsRepo interface {
	GetShop(ctx context.Context, id uuid.UUID) (*Shop, error)
	ListShops(ctx context.Context, offset, limit int) ([]*Shop, int, error)
	ListShopIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
	ShopNames(ctx context.Context) (map[uuid.UUID]string, error)
}

// checkShopPage rejects windows that would index before the first row or
// overflow offset+limit.
func checkShopPage(offset, limit int) error {
	if offset < 0 || limit < 1 || offset > math.MaxInt-limit {
		return &ValidationError{Field: "page", Reason: "is out of range"}
	}
	return nil
}

const shopColumns = "id,owner_id,name,slug,description,category,location,region,images,created_at,updated_at"

func (su *SupabaseRepo) GetShop(ctx context.Context, id uuid.UUID) (*Shop, error) {
	if id == uuid.Nil {
		return nil, ErrShopNotFound
	}

	raw, _, err := su.supabaseClient.From(ShopsTable).
		Select(shopColumns, "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	var shops []*Shop
	if err := json.Unmarshal(raw, &shops); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shop rows: %w", err)
	}
	if len(shops) == 0 {
		return nil, ErrShopNotFound
	}

	return shops[0], nil
}

func (su *SupabaseRepo) ListShops(ctx context.Context, offset, limit int) ([]*Shop, int, error) {
	if err := checkShopPage(offset, limit); err != nil {
		return nil, 0, err
	}
	raw, count, err := su.supabaseClient.From(ShopsTable).
		Select(shopColumns, "exact", false).
		Range(offset, offset+limit-1, "").
		Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get shops: %w", err)
	}

	if count == 0 {
		return []*Shop{}, 0, nil
	}

	var shops []*Shop
	if err := json.Unmarshal(raw, &shops); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal shops: %w", err)
	}

	return shops, int(count), nil
}

func (su *SupabaseRepo) ListShopIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	raw, _, err := su.supabaseClient.From(ShopsTable).
		Select("id", "", false).
		Eq("owner_id", ownerID.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get owned shops: %w", err)
	}

	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal owned shops: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// ShopNames returns every shop's display name keyed by id, for feed search.
func (su *SupabaseRepo) ShopNames(ctx context.Context) (map[uuid.UUID]string, error) {
	raw, _, err := su.supabaseClient.From(ShopsTable).
		Select("id,name", "", false).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get shop names: %w", err)
	}

	var rows []struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shop names: %w", err)
	}

	names := make(map[uuid.UUID]string, len(rows))
	for _, r := range rows {
		names[r.ID] = r.Name
	}
	return names, nil
}
