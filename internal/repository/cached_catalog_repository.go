package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/campus-shuttle/service-shuttle/internal/domain/catalog"
)

const snapshotKey = "catalog:snapshot"

// CachedCatalogRepository keeps the last catalog snapshot for a short TTL.
// Snapshots are shared between callers and must not be modified.
type CachedCatalogRepository struct {
	next   catalog.Repository
	cache  *cache.Cache
	logger *zap.Logger
}

// NewCachedCatalogRepository wraps next. A ttl of zero or less returns next
// unchanged.
func NewCachedCatalogRepository(next catalog.Repository, ttl time.Duration, logger *zap.Logger) catalog.Repository {
	if ttl <= 0 {
		return next
	}
	return &CachedCatalogRepository{
		next:   next,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

func (r *CachedCatalogRepository) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	if v, ok := r.cache.Get(snapshotKey); ok {
		return v.(*catalog.Snapshot), nil
	}

	snap, err := r.next.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		r.logger.Warn("catalog snapshot failed validation", zap.Error(err))
	}
	r.cache.SetDefault(snapshotKey, snap)
	return snap, nil
}

func (r *CachedCatalogRepository) ListStops(ctx context.Context) ([]catalog.Stop, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Stops, nil
}

func (r *CachedCatalogRepository) ListRoutes(ctx context.Context) ([]catalog.Route, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Routes, nil
}

func (r *CachedCatalogRepository) ListTransferPoints(ctx context.Context) ([]catalog.TransferPoint, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.TransferPoints, nil
}
