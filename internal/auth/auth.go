// Package auth resolves the caller's identity and admin privilege for every
// request. All policy inputs are injected through Config; nothing in here
// reads the environment.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"telemart/internal/telegram"
)

// Request headers carrying the caller identity. InitDataHeader is the
// verified path; IDHeader is the development fallback only.
const (
	InitDataHeader = "X-Telegram-Init-Data"
	IDHeader       = "X-Telegram-Id"
)

type RuntimeMode int

const (
	ModeDevelopment RuntimeMode = iota
	ModeProduction
)

func ParseMode(s string) RuntimeMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return ModeProduction
	default:
		return ModeDevelopment
	}
}

var (
	ErrNotConfigured      = errors.New("telegram bot token is not configured")
	ErrAdminNotConfigured = errors.New("admin access is not configured")
	ErrForbidden          = errors.New("forbidden")
)

// Identity is a resolved caller. ID is the external (Telegram) id.
type Identity struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
}

type Config struct {
	Mode           RuntimeMode
	BotToken       string
	AdminIDs       map[string]struct{}
	InitDataMaxAge time.Duration
}

func NewConfig(mode RuntimeMode, botToken string, adminIDs []string, maxAge time.Duration) Config {
	set := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return Config{Mode: mode, BotToken: botToken, AdminIDs: set, InitDataMaxAge: maxAge}
}

// resolver inspects a request and either produces an identity, abstains
// (nil, nil), or fails the request outright.
type resolver interface {
	Resolve(r *http.Request) (*Identity, error)
}

type verifiedTokenResolver struct {
	botToken string
	maxAge   time.Duration
}

func (v verifiedTokenResolver) Resolve(r *http.Request) (*Identity, error) {
	raw := strings.TrimSpace(r.Header.Get(InitDataHeader))
	if raw == "" {
		return nil, errors.New("missing Telegram init data")
	}
	data, err := telegram.VerifyInitData(raw, v.botToken, v.maxAge)
	if err != nil {
		return nil, err
	}
	return &Identity{
		ID:        data.User.ID,
		Username:  data.User.Username,
		FirstName: data.User.FirstName,
		LastName:  data.User.LastName,
	}, nil
}

// devHeaderResolver trusts a plain id header. Explicitly weaker; the gate
// only enables it in development with no bot token configured.
type devHeaderResolver struct{}

func (devHeaderResolver) Resolve(r *http.Request) (*Identity, error) {
	id := strings.TrimSpace(r.Header.Get(IDHeader))
	if id == "" {
		return nil, nil
	}
	return &Identity{ID: id}, nil
}

// Gate answers "who is calling" and "are they an admin". It is constructed
// once at startup but both questions are re-derived per request.
type Gate struct {
	cfg       Config
	resolvers []resolver
}

func NewGate(cfg Config) *Gate {
	g := &Gate{cfg: cfg}
	if cfg.BotToken != "" {
		g.resolvers = append(g.resolvers, verifiedTokenResolver{botToken: cfg.BotToken, maxAge: cfg.InitDataMaxAge})
	} else if cfg.Mode != ModeProduction {
		g.resolvers = append(g.resolvers, devHeaderResolver{})
	}
	return g
}

// DevIdentityAllowed reports whether unauthenticated dev-fallback identity
// (headers or body fields) may be trusted.
func (g *Gate) DevIdentityAllowed() bool {
	return g.cfg.BotToken == "" && g.cfg.Mode != ModeProduction
}

// RequireIdentity gates identity-sensitive endpoints. With a bot token
// configured every request must carry valid init data. Without one,
// production fails closed with 500 while development continues with
// whatever the dev resolver produced (possibly no identity at all).
func (g *Gate) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.cfg.BotToken == "" && g.cfg.Mode == ModeProduction {
			WriteError(w, http.StatusInternalServerError, ErrNotConfigured.Error())
			return
		}

		for _, res := range g.resolvers {
			ident, err := res.Resolve(r)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}
			if ident != nil {
				r = r.WithContext(ContextWithIdentity(r.Context(), ident))
				break
			}
		}
		next.ServeHTTP(w, r)
	})
}

// IsAdmin applies the admin policy to a resolved identity. When identity
// verification is configured an empty admin set means nobody is admin, and
// the error is distinguishable from a plain denial so operators can tell
// misconfiguration apart. Only in development with no admin set does every
// caller count as admin.
func (g *Gate) IsAdmin(ident *Identity) error {
	if g.cfg.BotToken != "" && len(g.cfg.AdminIDs) == 0 {
		return ErrAdminNotConfigured
	}
	if len(g.cfg.AdminIDs) == 0 {
		return nil
	}
	if ident == nil || ident.ID == "" {
		return ErrForbidden
	}
	if _, ok := g.cfg.AdminIDs[ident.ID]; !ok {
		return ErrForbidden
	}
	return nil
}

func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, _ := IdentityFromContext(r.Context())
		if err := g.IsAdmin(ident); err != nil {
			if errors.Is(err, ErrAdminNotConfigured) {
				WriteError(w, http.StatusForbidden, ErrAdminNotConfigured.Error())
				return
			}
			WriteError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKeyIdentity struct{}

func ContextWithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, ident)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	ident, ok := ctx.Value(ctxKeyIdentity{}).(*Identity)
	return ident, ok && ident != nil
}

// WriteError writes the API error envelope.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
