package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"telemart/internal/types/catalog"
)

type stubRepo struct {
	services []catalog.Service
	err      error
}

func (r *stubRepo) ListActiveServices(_ context.Context) ([]catalog.Service, error) {
	return r.services, r.err
}

func TestListServicesEmptyIsNotNull(t *testing.T) {
	svc := NewService(&stubRepo{})

	services, err := svc.ListServices(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, services)
	assert.Empty(t, services)
}

func TestListServicesHandler(t *testing.T) {
	svc := NewService(&stubRepo{services: []catalog.Service{
		{
			ID:   "svc-1",
			Name: "Spotify",
			Icon: "🎵",
			Plans: []catalog.Plan{
				{ID: "plan-1", ServiceID: "svc-1", AccountType: catalog.AccountTypeReady, DurationLabel: "1 Месяц", Price: 199},
			},
		},
	}})
	h := NewHandler(svc)

	rec := httptest.NewRecorder()
	h.ListServices(rec, httptest.NewRequest(http.MethodGet, "/api/services", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Spotify"`)
	assert.Contains(t, rec.Body.String(), `"accountType":"ready"`)
	assert.Contains(t, rec.Body.String(), `"price":199`)
}
