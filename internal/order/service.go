package order

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"telemart/internal/types/order"
)

var (
	ErrInvalidPayload   = errors.New("invalid order payload")
	ErrInvalidItem      = errors.New("invalid order item")
	ErrPlansUnavailable = errors.New("some plans are unavailable")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrClaimConflict    = errors.New("order is already claimed")
	ErrOrderNotFound    = errors.New("order not found")
	ErrNoUpdates        = errors.New("no updates provided")
	ErrMissingAdminID   = errors.New("missing admin telegram id")
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// Caller is the verified customer placing an order.
type Caller struct {
	TelegramID string
	Username   string
	FirstName  string
}

type NewOrderItem struct {
	PlanID   string
	Quantity float64
}

type NewOrder struct {
	CustomerContact string
	CustomerNote    string
	Items           []NewOrderItem
}

type Service struct {
	repo     OrderRepository
	users    UserUpserter
	notifier AdminNotifier
}

func NewService(r OrderRepository, users UserUpserter, notifier AdminNotifier) *Service {
	return &Service{repo: r, users: users, notifier: notifier}
}

// CreateOrder validates and normalizes the cart, snapshots current plan data
// into line items, persists the order and fires the admin notification.
// Totals are always computed server-side.
func (s *Service) CreateOrder(ctx context.Context, caller Caller, in NewOrder) (*order.Order, error) {
	if caller.TelegramID == "" || len(in.Items) == 0 {
		return nil, ErrInvalidPayload
	}

	// Collapse duplicate plans, keeping first-seen order for the lines.
	quantities := make(map[string]int, len(in.Items))
	planIDs := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		planID := strings.TrimSpace(it.PlanID)
		qty := int(math.Floor(it.Quantity))
		if planID == "" || qty <= 0 {
			return nil, ErrInvalidItem
		}
		if _, seen := quantities[planID]; !seen {
			planIDs = append(planIDs, planID)
		}
		quantities[planID] += qty
	}

	plans, err := s.repo.FindActivePlans(ctx, planIDs)
	if err != nil {
		return nil, err
	}
	if len(plans) != len(planIDs) {
		return nil, ErrPlansUnavailable
	}
	planByID := make(map[string]int, len(plans))
	for i, p := range plans {
		planByID[p.ID] = i
	}

	items := make([]order.Item, 0, len(planIDs))
	total := 0
	for _, planID := range planIDs {
		p := plans[planByID[planID]]
		qty := quantities[planID]
		items = append(items, order.Item{
			ServiceID:     p.ServiceID,
			PlanID:        p.ID,
			ServiceName:   p.ServiceName,
			AccountType:   string(p.AccountType),
			DurationLabel: p.DurationLabel,
			Price:         p.Price,
			Quantity:      qty,
		})
		total += p.Price * qty
	}

	u, err := s.users.UpsertUser(ctx, caller.TelegramID,
		optional(caller.Username), optional(caller.FirstName))
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		UserID:          u.ID,
		Status:          order.StatusPending,
		TotalAmount:     total,
		CustomerContact: optional(strings.TrimSpace(in.CustomerContact)),
		CustomerNote:    optional(strings.TrimSpace(in.CustomerNote)),
		Items:           items,
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}
	o.User = u

	if s.notifier != nil {
		// Persistence is already durable; delivery is fire-and-forget.
		go s.notifier.OrderCreated(o)
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, f order.ListFilter) ([]order.Order, error) {
	if f.Limit < 1 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	orders, err := s.repo.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []order.Order{}
	}
	return orders, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	o, err := s.repo.FindOrderByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ClaimOrder is the one concurrency-critical operation: the conditional
// update in the store guarantees exactly one of any number of concurrent
// claimants wins. Zero affected rows is a conflict, never a silent success.
func (s *Service) ClaimOrder(ctx context.Context, id, adminID string) (*order.Order, error) {
	if strings.TrimSpace(adminID) == "" {
		return nil, ErrMissingAdminID
	}
	affected, err := s.repo.ClaimOrder(ctx, id, adminID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrClaimConflict
	}
	return s.GetOrder(ctx, id)
}

// UpdateOrder applies an admin partial edit. Admin edits may move an order
// between arbitrary statuses; only the claim path is constrained.
func (s *Service) UpdateOrder(ctx context.Context, id string, upd order.Update) (*order.Order, error) {
	if upd.Empty() {
		return nil, ErrNoUpdates
	}
	// An empty assignee means unassign.
	if upd.AssignedTo.Present && !upd.AssignedTo.Null {
		upd.AssignedTo.Value = strings.TrimSpace(upd.AssignedTo.Value)
		if upd.AssignedTo.Value == "" {
			upd.AssignedTo.Null = true
		}
	}
	if upd.AdminNote.Present && !upd.AdminNote.Null {
		upd.AdminNote.Value = strings.TrimSpace(upd.AdminNote.Value)
	}
	if upd.AdminMessage.Present && !upd.AdminMessage.Null {
		upd.AdminMessage.Value = strings.TrimSpace(upd.AdminMessage.Value)
	}

	err := s.repo.UpdateOrder(ctx, id, upd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

// PendingUnassigned lists orders still waiting to be claimed, for the
// reminder job.
func (s *Service) PendingUnassigned(ctx context.Context) ([]order.Order, error) {
	status := order.StatusPending
	return s.ListOrders(ctx, order.ListFilter{
		Status:     &status,
		Unassigned: true,
		Limit:      maxListLimit,
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
