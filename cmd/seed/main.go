// Command seed upserts the service/plan catalog. Safe to run repeatedly:
// services are keyed by name, plans by (service, account type, duration).
package main

import (
	"context"
	"log"
	"math"
	"os"
	"time"

	"github.com/joho/godotenv"

	storage "telemart/internal/storage/postgres"
	"telemart/internal/types/catalog"
)

type seedService struct {
	Name      string
	Icon      string
	Color     string
	BasePrice int
	SortOrder int
}

type seedDuration struct {
	Label      string
	Months     int
	Multiplier float64
}

var services = []seedService{
	{Name: "Spotify", Icon: "🎵", Color: "#22c55e", BasePrice: 199, SortOrder: 1},
	{Name: "ChatGPT", Icon: "🤖", Color: "#14b8a6", BasePrice: 299, SortOrder: 2},
	{Name: "Gemini", Icon: "✨", Color: "#0ea5e9", BasePrice: 299, SortOrder: 3},
	{Name: "Netflix", Icon: "🎬", Color: "#dc2626", BasePrice: 399, SortOrder: 4},
	{Name: "YouTube", Icon: "▶️", Color: "#ef4444", BasePrice: 149, SortOrder: 5},
	{Name: "Discord", Icon: "🎮", Color: "#6366f1", BasePrice: 249, SortOrder: 6},
	{Name: "PS Plus", Icon: "➕", Color: "#eab308", BasePrice: 499, SortOrder: 7},
}

var durations = []seedDuration{
	{Label: "1 Месяц", Months: 1, Multiplier: 1},
	{Label: "3 Месяца", Months: 3, Multiplier: 2.8},
	{Label: "6 Месяцев", Months: 6, Multiplier: 5.5},
	{Label: "1 Год", Months: 12, Multiplier: 10},
}

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URI")
	if dsn == "" {
		log.Fatal("DATABASE_URI must be set")
	}

	store, err := storage.NewPostgresStorage(dsn)
	if err != nil {
		log.Fatalf("Failed to initialize Postgres storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, seed := range services {
		svc := &catalog.Service{
			Name:      seed.Name,
			Icon:      seed.Icon,
			Color:     seed.Color,
			SortOrder: seed.SortOrder,
		}
		if err := store.UpsertService(ctx, svc); err != nil {
			log.Fatalf("upsert service %s: %v", seed.Name, err)
		}

		for i, d := range durations {
			price := int(math.Round(float64(seed.BasePrice) * d.Multiplier))
			for _, accountType := range []catalog.AccountType{catalog.AccountTypeReady, catalog.AccountTypeOwn} {
				plan := &catalog.Plan{
					ServiceID:      svc.ID,
					AccountType:    accountType,
					DurationLabel:  d.Label,
					DurationMonths: d.Months,
					Price:          price,
					SortOrder:      i + 1,
				}
				if err := store.UpsertPlan(ctx, plan); err != nil {
					log.Fatalf("upsert plan %s %s %dm: %v", seed.Name, accountType, d.Months, err)
				}
			}
		}
		log.Printf("seeded %s", seed.Name)
	}
}
