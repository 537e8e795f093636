package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ceylonmart/checkout-service/internal/cart/cache"
	"github.com/ceylonmart/checkout-service/internal/catalog"
	"github.com/ceylonmart/checkout-service/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	repo    Repository
	cache   cache.CartCache
	catalog catalog.Store
	logger  *zap.Logger
	sfg     singleflight.Group // Prevents cache stampede
}

func NewService(repo Repository, cartCache cache.CartCache, store catalog.Store, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   cartCache,
		catalog: store,
		logger:  logger,
	}
}

// GetCart returns the persisted cart for a user, going to the cache
// first. A user without a cart gets an empty one.
func (s *Service) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	// Use singleflight to collapse concurrent cache misses for the same key
	v, err, _ := s.sfg.Do(fmt.Sprint(userID), func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cached, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", zap.Int64("user_id", userID), zap.Error(err))
		}

		loaded, errGet := s.repo.GetCart(ctx, userID)
		if errors.Is(errGet, domain.ErrCartNotFound) {
			now := time.Now()
			return &domain.Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(setCtx, userID, loaded); errSet != nil {
				s.logger.Warn("cart cache set failed", zap.Int64("user_id", userID), zap.Error(errSet))
			}
		}()

		return loaded, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// GetCartLines joins the user's cart with current product data for
// display. Lines whose product no longer exists are silently dropped,
// matching the historical storefront behavior.
func (s *Service) GetCartLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.CartLine, 0, len(c.Items))
	for _, item := range c.Items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if errors.Is(err, domain.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve cart product %d: %w", item.ProductID, err)
		}
		lines = append(lines, domain.CartLine{
			ProductID: product.ID,
			Title:     product.Title,
			UnitPrice: product.UnitPrice(),
			ImageURL:  product.ImageURL,
			Quantity:  item.Quantity,
		})
	}
	return lines, nil
}

// ResolveGuestCart turns a client-held product->quantity map into
// displayable cart lines, applying the same drop-on-missing policy as
// the persisted cart.
func (s *Service) ResolveGuestCart(ctx context.Context, guest domain.GuestCart) ([]domain.CartLine, error) {
	lines := make([]domain.CartLine, 0, len(guest))
	for productID, quantity := range guest {
		product, err := s.catalog.GetProduct(ctx, productID)
		if errors.Is(err, domain.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve guest cart product %d: %w", productID, err)
		}
		lines = append(lines, domain.CartLine{
			ProductID: product.ID,
			Title:     product.Title,
			UnitPrice: product.UnitPrice(),
			ImageURL:  product.ImageURL,
			Quantity:  quantity,
		})
	}
	return lines, nil
}

func (s *Service) AddItem(ctx context.Context, userID int64, item domain.CartItem) error {
	if err := s.repo.AddItem(ctx, userID, item); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) UpdateQuantity(ctx context.Context, userID int64, productID int64, quantity int32) error {
	if err := s.repo.UpdateItemQuantity(ctx, userID, productID, quantity); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, userID int64, productID int64) error {
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// ClearCart empties the persisted cart outside of a checkout. The
// checkout commit clears cart rows inside its own transaction and only
// calls InvalidateCache afterwards.
func (s *Service) ClearCart(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteCart(ctx, userID); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// InvalidateCache drops the cached cart for a user.
func (s *Service) InvalidateCache(userID int64) {
	s.invalidateCache(userID)
}

func (s *Service) invalidateCache(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cart cache invalidate failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
