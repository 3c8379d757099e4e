package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/viatura/checkout/internal/cache"
	"github.com/viatura/checkout/internal/cart"
	"github.com/viatura/checkout/internal/repository"
)

// Service implements cart.Storage over the Mongo repository with a Redis
// cache in front of reads.
type Service struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewService(repo repository.CartRepository, cache cache.CartCache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

func (s *Service) Load(ctx context.Context, sessionID string) ([]cart.Line, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		lines, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return lines, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		lines, errGet := s.repo.Get(ctx, sessionID)
		if errGet != nil {
			if errors.Is(errGet, repository.ErrCartNotFound) {
				return nil, cart.ErrNotFound
			}
			return nil, errGet
		}

		// set cache
		go func() {
			if errSet := s.cache.Set(context.Background(), sessionID, lines); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return lines, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]cart.Line), nil
}

func (s *Service) Save(ctx context.Context, sessionID string, lines []cart.Line) error {
	if err := s.repo.Upsert(ctx, sessionID, lines); err != nil {
		log.Printf("repo upsert error: %v", err)
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *Service) Delete(ctx context.Context, sessionID string) error {
	err := s.repo.Delete(ctx, sessionID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		log.Printf("repo delete error: %v", err)
		return err
	}

	s.invalidateCache(sessionID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return cart.ErrNotFound
	}
	return nil
}

func (s *Service) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
