package availability_service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenityspa/medsoft-availability-generator/internal/adapters/out/logger"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
	"github.com/serenityspa/medsoft-availability-generator/internal/utils"
)

func catalogFixture() (*mockSchedulePort, *mockCatalogPort) {
	schedule := &mockSchedulePort{
		roster: map[int][]domain.Practitioner{
			1: {
				{ID: 10, Name: "Ana Pop", SpecialtyID: 5, LocationID: 1},
			},
		},
	}
	catalog := &mockCatalogPort{
		services: []domain.Service{
			{Code: 100, Name: "Head Spa Premium", Category: "HEAD SPA", DurationMinutes: 30},
			{Code: 101, Name: "Head Spa Basic", Category: "HEAD SPA", DurationMinutes: 30},
			{Code: 200, Name: "Drenaj Limfatic", Category: "DRENAJ (PRESOTERAPIE & TERMOTERAPIE)", DurationMinutes: 45},
			{Code: 300, Name: "Terapie Ana", Category: "TERAPII", DurationMinutes: 60, PractitionerID: 10},
			{Code: 301, Name: "Terapie Externa", Category: "TERAPII", DurationMinutes: 60, PractitionerID: 99},
		},
	}
	return schedule, catalog
}

func TestListCategories_CountsOnlyBookableServices(t *testing.T) {
	schedule, catalog := catalogFixture()

	svc := newService(schedule, catalog, nil)

	categories, err := svc.ListCategories(context.Background(), 1)
	require.NoError(t, err)

	byName := make(map[string]int)
	for _, c := range categories {
		byName[c.Name] = c.ServiceCount
	}

	assert.Equal(t, 2, byName["HEAD SPA"])
	// Услуга с привязкой к чужому врачу не считается
	assert.Equal(t, 1, byName["TERAPII"])
}

func TestListCategories_ExcludedCategoriesNeverAppear(t *testing.T) {
	schedule, catalog := catalogFixture()

	cfg := newTestConfig()
	cfg.Catalog.ExcludedCategories = []string{"DRENAJ (PRESOTERAPIE & TERMOTERAPIE)"}
	svc := NewAvailabilityService(cfg, schedule, catalog, nil, logger.NewNopLogger())

	categories, err := svc.ListCategories(context.Background(), 1)
	require.NoError(t, err)

	for _, c := range categories {
		assert.NotEqual(t, "DRENAJ (PRESOTERAPIE & TERMOTERAPIE)", c.Name)
	}
}

func TestListCategories_AdminCategoryNeverAppears(t *testing.T) {
	schedule, catalog := catalogFixture()
	catalog.services = append(catalog.services, domain.Service{
		Code: 900, Name: "Pauza", Category: "ADMINISTRATIV",
	})

	svc := newService(schedule, catalog, nil)

	categories, err := svc.ListCategories(context.Background(), 1)
	require.NoError(t, err)

	for _, c := range categories {
		assert.NotEqual(t, "ADMINISTRATIV", c.Name)
	}
}

func TestListCategories_DegradesToEmptyOnUpstreamError(t *testing.T) {
	schedule, _ := catalogFixture()
	catalog := &mockCatalogPort{servicesErr: domain.ErrUpstreamUnavailable}

	svc := newService(schedule, catalog, nil)

	categories, err := svc.ListCategories(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestListCategories_CachedEmptyDayMakesServiceUnbookable(t *testing.T) {
	// Прекомпьют уже посчитал завтрашний день и слотов не нашел:
	// услуга выпадает из витрины, пока кэш не обновится.
	schedule, catalog := catalogFixture()
	catalog.services = catalog.services[:1]

	cache := newMockCachePort()
	probeDay := utils.StartNextDay(time.Now().UTC())
	cache.seed(1, 100, probeDay, domain.GroupedSlots{})

	svc := newService(schedule, catalog, cache)

	categories, err := svc.ListCategories(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestListServicesForCategory_NormalizedNameMatch(t *testing.T) {
	schedule, catalog := catalogFixture()

	svc := newService(schedule, catalog, nil)

	// Название пришло с фронта без скобок и амперсанда
	services, err := svc.ListServicesForCategory(context.Background(), "drenaj presoterapie  termoterapie", 1)
	require.NoError(t, err)

	require.Len(t, services, 1)
	assert.Equal(t, 200, services[0].Code)
}

func TestListServicesForCategory_UnknownCategory(t *testing.T) {
	schedule, catalog := catalogFixture()

	svc := newService(schedule, catalog, nil)

	_, err := svc.ListServicesForCategory(context.Background(), "NU EXISTA", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCategoryNotFound))
}

func TestListServicesForCategory_SortedByName(t *testing.T) {
	schedule, catalog := catalogFixture()

	svc := newService(schedule, catalog, nil)

	services, err := svc.ListServicesForCategory(context.Background(), "HEAD SPA", 1)
	require.NoError(t, err)

	require.Len(t, services, 2)
	assert.Equal(t, "Head Spa Basic", services[0].Name)
	assert.Equal(t, "Head Spa Premium", services[1].Name)
}

func TestListServicesForCategory_ResolvesDurationFromScopes(t *testing.T) {
	schedule, catalog := catalogFixture()
	catalog.services = []domain.Service{
		{Code: 100, Name: "Head Spa Premium", Category: "HEAD SPA"},
	}
	catalog.scopes = []domain.AppointmentScope{
		{Code: 1, Name: "Head Spa", DurationMinutes: 45, ServiceCodes: []int{100}},
	}

	svc := newService(schedule, catalog, nil)

	services, err := svc.ListServicesForCategory(context.Background(), "HEAD SPA", 1)
	require.NoError(t, err)

	require.Len(t, services, 1)
	assert.Equal(t, 45, services[0].DurationMinutes)
}

func TestListServicesForCategory_DurationDefaultsTo60(t *testing.T) {
	schedule, catalog := catalogFixture()
	catalog.services = []domain.Service{
		{Code: 100, Name: "Head Spa Premium", Category: "HEAD SPA"},
	}

	svc := newService(schedule, catalog, nil)

	services, err := svc.ListServicesForCategory(context.Background(), "HEAD SPA", 1)
	require.NoError(t, err)

	require.Len(t, services, 1)
	assert.Equal(t, domain.DefaultServiceDurationMinutes, services[0].DurationMinutes)
}

func TestListServices_Memoized(t *testing.T) {
	schedule, catalog := catalogFixture()

	svc := newService(schedule, catalog, nil)

	_, err := svc.ListCategories(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.ListCategories(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, catalog.servicesCalls)
}

func TestListLocations_FromConfig(t *testing.T) {
	schedule, catalog := catalogFixture()

	svc := newService(schedule, catalog, nil)

	locations := svc.ListLocations(context.Background())
	require.Len(t, locations, 1)
	assert.Equal(t, "Arcu", locations[0].Name)
}
