package catalog

import "context"

// Repository reads the route catalog.
type Repository interface {
	// Snapshot loads stops, routes with their ordered stops, and transfer points.
	Snapshot(ctx context.Context) (*Snapshot, error)

	ListStops(ctx context.Context) ([]Stop, error)
	ListRoutes(ctx context.Context) ([]Route, error)
	ListTransferPoints(ctx context.Context) ([]TransferPoint, error)
}
