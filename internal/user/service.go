package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"telemart/internal/types/order"
	"telemart/internal/types/user"
)

var (
	ErrMissingTelegramUser = errors.New("missing telegram user")
	ErrInvalidTelegramID   = errors.New("invalid telegramId")
)

const (
	defaultProfileLimit = 10
	maxProfileLimit     = 50
)

// ProfileUser is the public shape of a user in profile responses.
type ProfileUser struct {
	TelegramID string  `json:"telegramId"`
	Username   *string `json:"username"`
	FirstName  *string `json:"firstName"`
}

type Profile struct {
	User   ProfileUser   `json:"user"`
	Stats  user.Stats    `json:"stats"`
	Orders []order.Order `json:"orders"`
}

// Requester is the identity asking for a profile, when one is available.
type Requester struct {
	ID        string
	Username  string
	FirstName string
}

type Service struct {
	repo UserRepository
	now  func() time.Time
}

func NewService(repo UserRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// EnsureUser idempotently upserts the caller's user row.
func (s *Service) EnsureUser(ctx context.Context, telegramID string, username, firstName *string) (*user.User, error) {
	if strings.TrimSpace(telegramID) == "" {
		return nil, ErrMissingTelegramUser
	}
	return s.repo.UpsertUser(ctx, strings.TrimSpace(telegramID), username, firstName)
}

// Profile returns the recent orders page alongside stats computed over the
// entire history. The user row is created lazily when the requester's
// verified identity matches and no row exists yet; without any identity an
// unknown telegramId yields an empty placeholder profile.
func (s *Service) Profile(ctx context.Context, telegramID string, requester *Requester, limit int) (*Profile, error) {
	telegramID = strings.TrimSpace(telegramID)
	if telegramID == "" {
		return nil, ErrInvalidTelegramID
	}
	if limit < 1 {
		limit = defaultProfileLimit
	}
	if limit > maxProfileLimit {
		limit = maxProfileLimit
	}

	u, err := s.repo.FindByTelegramID(ctx, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		if requester == nil {
			return &Profile{
				User:   ProfileUser{TelegramID: telegramID},
				Orders: []order.Order{},
			}, nil
		}
		u, err = s.repo.UpsertUser(ctx, requester.ID,
			optional(requester.Username), optional(requester.FirstName))
	}
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListOrdersByUser(ctx, u.ID, limit)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []order.Order{}
	}

	count, spent, err := s.repo.GetOrderStats(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User: ProfileUser{
			TelegramID: u.TelegramID,
			Username:   u.Username,
			FirstName:  u.FirstName,
		},
		Stats: user.Stats{
			OrdersCount: count,
			TotalSpent:  spent,
			DaysWithUs:  s.daysSince(u.CreatedAt),
		},
		Orders: orders,
	}, nil
}

// daysSince floors at one so a brand-new user never sees zero.
func (s *Service) daysSince(t time.Time) int {
	days := int(s.now().Sub(t).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
