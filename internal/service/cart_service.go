package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"golang.org/x/sync/singleflight"
)

// CouponApplier validates a coupon against a subtotal.
// Consumers define this interface, not the coupon service.
type CouponApplier interface {
	Apply(ctx context.Context, code string, subtotal float64) (*CouponResult, error)
}

type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	coupons  CouponApplier
	cache    cache.CartCache
	sfg      singleflight.Group // Prevents cache stampede
	locks    sync.Map           // userID -> *sync.Mutex, serializes writers per user
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository, coupons CouponApplier, cartCache cache.CartCache) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		coupons:  coupons,
		cache:    cartCache,
	}
}

func (s *CartService) userLock(userID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.loadCart(ctx, userID)
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			if errSet := s.cache.Set(context.Background(), userID, cart); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// loadCart reads the cart from the store, returning an empty cart for users
// who have never added anything.
func (s *CartService) loadCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			now := time.Now()
			return &domain.Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		}
		return nil, err
	}
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID string, qty int) (*domain.Cart, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("product lookup failed: %w", err)
	}

	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	max := product.Stock
	if max <= 0 {
		max = domain.MaxQuantity
	}

	if i, ok := cart.FindItem(productID); ok {
		newQty := cart.Items[i].Quantity + qty
		if newQty > max {
			newQty = max
		}
		cart.Items[i].Quantity = newQty
		cart.Items[i].Stock = product.Stock
	} else {
		if qty > max {
			qty = max
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: productID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			Brand:     product.Brand,
			Stock:     product.Stock,
			Quantity:  qty,
			AddedAt:   time.Now(),
		})
	}

	return s.save(ctx, cart)
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, qty int) (*domain.Cart, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	i, ok := cart.FindItem(productID)
	if !ok {
		return nil, ErrItemNotFound
	}

	if max := cart.Items[i].MaxAllowed(); qty > max {
		qty = max
	}
	cart.Items[i].Quantity = qty

	return s.save(ctx, cart)
}

// RemoveItem is an idempotent filter; a missing line is not an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	return s.save(ctx, cart)
}

// Clear empties the cart and unconditionally drops any applied coupon.
func (s *CartService) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Items = []domain.CartItem{}
	cart.CouponCode = ""
	cart.DiscountAmount = 0

	return s.save(ctx, cart)
}

// Sync merges a local (pre-login) cart into the server cart. Quantities of
// matching lines are summed, not clamped against stock. Unknown products come
// in as new lines carrying the incoming snapshot fields.
func (s *CartService) Sync(ctx context.Context, userID string, localItems []domain.CartItem) (*domain.Cart, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, incoming := range localItems {
		if incoming.Quantity < 1 {
			continue
		}
		if i, ok := cart.FindItem(incoming.ProductID); ok {
			cart.Items[i].Quantity += incoming.Quantity
		} else {
			if incoming.AddedAt.IsZero() {
				incoming.AddedAt = time.Now()
			}
			cart.Items = append(cart.Items, incoming)
		}
	}

	return s.save(ctx, cart)
}

func (s *CartService) ApplyCoupon(ctx context.Context, userID, code string) (*domain.Cart, *CouponResult, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.coupons.Apply(ctx, code, cart.Subtotal())
	if err != nil {
		return nil, nil, err
	}

	cart.CouponCode = result.Code
	cart.DiscountAmount = result.Discount

	saved, err := s.save(ctx, cart)
	if err != nil {
		return nil, nil, err
	}
	return saved, result, nil
}

func (s *CartService) RemoveCoupon(ctx context.Context, userID string) (*domain.Cart, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.CouponCode = ""
	cart.DiscountAmount = 0

	return s.save(ctx, cart)
}

func (s *CartService) save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		log.Printf("repo upsert cart error: %v", err)
		return nil, err
	}

	s.invalidateCache(cart.UserID)
	return cart, nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
