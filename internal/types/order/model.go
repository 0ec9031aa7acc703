package order

import (
	"encoding/json"
	"strings"
	"time"

	"telemart/internal/types/user"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// ParseStatus normalizes a client-supplied status case-insensitively and
// reports whether it names a known status.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return st, true
	default:
		return "", false
	}
}

type Order struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"userId"`
	Status          Status     `db:"status" json:"status"`
	TotalAmount     int        `db:"total_amount" json:"totalAmount"`
	CustomerContact *string    `db:"customer_contact" json:"customerContact"`
	CustomerNote    *string    `db:"customer_note" json:"customerNote"`
	AdminNote       *string    `db:"admin_note" json:"adminNote"`
	AdminMessage    *string    `db:"admin_message" json:"adminMessage"`
	AssignedTo      *string    `db:"assigned_to" json:"assignedTo"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	User            *user.User `json:"user,omitempty"`
	Items           []Item     `json:"items"`
}

// Item is a denormalized snapshot of the plan at purchase time. Later edits
// to the catalog must not change historical order records, so the service
// name, account type, duration label and price are copied, not referenced.
type Item struct {
	ID            string `db:"id" json:"id"`
	OrderID       string `db:"order_id" json:"orderId"`
	ServiceID     string `db:"service_id" json:"serviceId"`
	PlanID        string `db:"plan_id" json:"planId"`
	ServiceName   string `db:"service_name" json:"serviceName"`
	AccountType   string `db:"account_type" json:"accountType"`
	DurationLabel string `db:"duration_label" json:"durationLabel"`
	Price         int    `db:"price" json:"price"`
	Quantity      int    `db:"quantity" json:"quantity"`
}

// StringPatch is a three-state field for partial updates: absent from the
// JSON body means "leave unchanged", an explicit null means "clear", and a
// string value means "set".
type StringPatch struct {
	Present bool
	Null    bool
	Value   string
}

func (p *StringPatch) UnmarshalJSON(b []byte) error {
	p.Present = true
	if string(b) == "null" {
		p.Null = true
		return nil
	}
	return json.Unmarshal(b, &p.Value)
}

// Update is an admin-side partial edit. Nil / non-present fields leave the
// stored value untouched.
type Update struct {
	Status       *Status
	AdminNote    StringPatch
	AdminMessage StringPatch
	AssignedTo   StringPatch
}

func (u Update) Empty() bool {
	return u.Status == nil && !u.AdminNote.Present && !u.AdminMessage.Present && !u.AssignedTo.Present
}

// ListFilter narrows an admin order listing. Unassigned takes precedence
// over AssignedTo when both are supplied.
type ListFilter struct {
	Status     *Status
	TelegramID string
	UserID     string
	Unassigned bool
	AssignedTo string
	Limit      int
	Offset     int
}
