package user

import (
	"context"

	"telemart/internal/types/order"
	"telemart/internal/types/user"
)

type UserRepository interface {
	FindByTelegramID(ctx context.Context, telegramID string) (*user.User, error)
	// UpsertUser creates the user on first contact and opportunistically
	// refreshes username/first name when new values are supplied.
	UpsertUser(ctx context.Context, telegramID string, username, firstName *string) (*user.User, error)
	// GetOrderStats aggregates over the whole order history: total count
	// and total spend excluding cancelled orders.
	GetOrderStats(ctx context.Context, userID string) (count int, totalSpent int, err error)
	ListOrdersByUser(ctx context.Context, userID string, limit int) ([]order.Order, error)
}
