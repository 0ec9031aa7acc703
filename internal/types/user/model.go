package user

import "time"

type User struct {
	ID         string    `db:"id" json:"id"`
	TelegramID string    `db:"telegram_id" json:"telegramId"`
	Username   *string   `db:"username" json:"username"`
	FirstName  *string   `db:"first_name" json:"firstName"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Stats is aggregated over the user's entire order history, not just the
// page of orders returned alongside it.
type Stats struct {
	OrdersCount int `json:"ordersCount"`
	TotalSpent  int `json:"totalSpent"`
	DaysWithUs  int `json:"daysWithUs"`
}
