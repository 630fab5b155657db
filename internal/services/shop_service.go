package services

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/joshua-takyi/nearby/internal/models"
)

const (
	DefaultShopPageSize = 20
	MaxShopPageSize     = 100
)

type ShopService struct {
	shopsRepo models.ShopsRepo
}

func NewShopService(shopsRepo models.ShopsRepo) *ShopService {
	return &ShopService{shopsRepo: shopsRepo}
}

func (ss *ShopService) GetShop(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	if id == uuid.Nil {
		return nil, models.ErrShopNotFound
	}
	shop, err := ss.shopsRepo.GetShop(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrShopNotFound) {
			return nil, err
		}
		return nil, &models.PersistenceError{Op: "load shop", Err: err}
	}
	return shop, nil
}

// ListShops pages through the directory. page starts at 1.
func (ss *ShopService) ListShops(ctx context.Context, page, limit int) ([]*models.Shop, int, error) {
	if page < 1 {
		return nil, 0, &models.ValidationError{Field: "page", Reason: "must be at least 1"}
	}
	if limit == 0 {
		limit = DefaultShopPageSize
	}
	if limit < 1 || limit > MaxShopPageSize {
		return nil, 0, &models.ValidationError{Field: "limit", Reason: "must be between 1 and 100"}
	}
	// offset+limit must still fit in an int
	if page-1 > (math.MaxInt-limit)/limit {
		return nil, 0, &models.ValidationError{Field: "page", Reason: "is out of range"}
	}

	shops, total, err := ss.shopsRepo.ListShops(ctx, (page-1)*limit, limit)
	if err != nil {
		if models.IsValidation(err) {
			return nil, 0, err
		}
		return nil, 0, &models.PersistenceError{Op: "list shops", Err: err}
	}
	return shops, total, nil
}
