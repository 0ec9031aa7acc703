package catalog

import "time"

// AccountType says whether a plan is sold as a ready-made account or as an
// activation on the customer's own account.
type AccountType string

const (
	AccountTypeReady AccountType = "ready"
	AccountTypeOwn   AccountType = "own"
)

type Service struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Icon      string    `db:"icon" json:"icon"`
	Color     string    `db:"color" json:"color"`
	Active    bool      `db:"active" json:"active"`
	SortOrder int       `db:"sort_order" json:"sortOrder"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	Plans     []Plan    `json:"plans"`
}

type Plan struct {
	ID             string      `db:"id" json:"id"`
	ServiceID      string      `db:"service_id" json:"serviceId"`
	AccountType    AccountType `db:"account_type" json:"accountType"`
	DurationLabel  string      `db:"duration_label" json:"durationLabel"`
	DurationMonths int         `db:"duration_months" json:"durationMonths"`
	Price          int         `db:"price" json:"price"`
	Active         bool        `db:"active" json:"active"`
	SortOrder      int         `db:"sort_order" json:"sortOrder"`
}

// PlanWithService carries the parent service name alongside the plan, so the
// order engine can snapshot it into a line item without a second lookup.
type PlanWithService struct {
	Plan
	ServiceName string `db:"service_name"`
}
