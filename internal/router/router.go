package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"telemart/internal/auth"
	"telemart/internal/catalog"
	"telemart/internal/logger"
	"telemart/internal/order"
	"telemart/internal/user"
)

func NewRouter(
	catalogH *catalog.Handler,
	orderH *order.Handler,
	userH *user.Handler,
	gate *auth.Gate,
	allowedOrigins []string,
) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.WithLogging)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", auth.InitDataHeader, auth.IDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", health)
	r.Get("/api/services", catalogH.ListServices)

	r.Group(func(r chi.Router) {
		r.Use(gate.RequireIdentity)

		r.Post("/api/me/ensure", userH.EnsureUser)
		r.Post("/api/orders", orderH.CreateOrder)
		r.Get("/api/users/{telegramId}/profile", userH.Profile)

		r.Group(func(r chi.Router) {
			r.Use(gate.RequireAdmin)

			r.Get("/api/orders", orderH.ListOrders)
			r.Get("/api/orders/{id}", orderH.GetOrder)
			r.Post("/api/orders/{id}/claim", orderH.ClaimOrder)
			r.Patch("/api/orders/{id}", orderH.UpdateOrder)
		})
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
