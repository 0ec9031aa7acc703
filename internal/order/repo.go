package order

import (
	"context"

	"telemart/internal/types/catalog"
	"telemart/internal/types/order"
	"telemart/internal/types/user"
)

type OrderRepository interface {
	// FindActivePlans resolves the given plan ids against the currently
	// active catalog, carrying the parent service name for snapshotting.
	FindActivePlans(ctx context.Context, planIDs []string) ([]catalog.PlanWithService, error)
	// CreateOrder persists the order and its items as one unit and fills
	// in the generated id and creation time.
	CreateOrder(ctx context.Context, o *order.Order) error
	ListOrders(ctx context.Context, f order.ListFilter) ([]order.Order, error)
	FindOrderByID(ctx context.Context, id string) (*order.Order, error)
	// ClaimOrder conditionally assigns a pending unassigned order and
	// reports how many rows were actually updated.
	ClaimOrder(ctx context.Context, id, adminID string) (int64, error)
	UpdateOrder(ctx context.Context, id string, u order.Update) error
}

// UserUpserter resolves-or-creates the user row owning a new order.
type UserUpserter interface {
	UpsertUser(ctx context.Context, telegramID string, username, firstName *string) (*user.User, error)
}

// AdminNotifier is the best-effort side channel for order events.
type AdminNotifier interface {
	OrderCreated(o *order.Order)
	PendingReminder(orders []order.Order)
}
