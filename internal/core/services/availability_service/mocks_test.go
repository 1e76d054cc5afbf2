package availability_service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/serenityspa/medsoft-availability-generator/internal/config"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
)

type mockSchedulePort struct {
	mu sync.Mutex

	roster    map[int][]domain.Practitioner
	rosterErr error

	windows    []domain.AvailabilityWindow
	windowsErr error

	rosterCalls  int
	windowsCalls int
}

func (m *mockSchedulePort) GetLocationPractitioners(_ context.Context, locationID int) ([]domain.Practitioner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rosterCalls++
	if m.rosterErr != nil {
		return nil, m.rosterErr
	}
	return m.roster[locationID], nil
}

func (m *mockSchedulePort) GetAvailabilityWindows(_ context.Context, locationID, practitionerID int, startDate, endDate time.Time) ([]domain.AvailabilityWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.windowsCalls++
	if m.windowsErr != nil {
		return nil, m.windowsErr
	}

	windows := make([]domain.AvailabilityWindow, 0)
	for _, w := range m.windows {
		if w.LocationID != locationID {
			continue
		}
		if w.Start.Before(startDate) || !w.Start.Before(endDate) {
			continue
		}
		windows = append(windows, w)
	}
	return windows, nil
}

type mockCatalogPort struct {
	mu sync.Mutex

	services    []domain.Service
	servicesErr error

	scopes    []domain.AppointmentScope
	scopesErr error

	servicesCalls int
}

func (m *mockCatalogPort) ListServices(_ context.Context) ([]domain.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.servicesCalls++
	if m.servicesErr != nil {
		return nil, m.servicesErr
	}
	return m.services, nil
}

func (m *mockCatalogPort) ListAppointmentScopes(_ context.Context) ([]domain.AppointmentScope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.scopesErr != nil {
		return nil, m.scopesErr
	}
	return m.scopes, nil
}

type mockCacheEntry struct {
	slots  domain.GroupedSlots
	expiry time.Time
}

type mockCachePort struct {
	mu sync.Mutex

	entries  map[string]mockCacheEntry
	storeErr error

	getCalls        int
	storeCalls      int
	invalidateCalls int

	lastInvalidateLocation int
	lastInvalidateService  int
	lastInvalidateDay      time.Time
}

func newMockCachePort() *mockCachePort {
	return &mockCachePort{entries: make(map[string]mockCacheEntry)}
}

func cacheKey(locationID, serviceID int, day time.Time) string {
	return fmt.Sprintf("%d:%d:%s", locationID, serviceID, day.Format(domain.DateKey))
}

func (m *mockCachePort) GetSlots(_ context.Context, locationID, serviceID int, day time.Time) (domain.GroupedSlots, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getCalls++
	entry, ok := m.entries[cacheKey(locationID, serviceID, day)]
	if !ok || time.Now().After(entry.expiry) {
		return nil, false
	}
	return entry.slots, true
}

func (m *mockCachePort) StoreSlots(_ context.Context, locationID, serviceID int, day time.Time, slots domain.GroupedSlots, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.storeCalls++
	if m.storeErr != nil {
		return m.storeErr
	}
	m.entries[cacheKey(locationID, serviceID, day)] = mockCacheEntry{slots: slots, expiry: expiry}
	return nil
}

func (m *mockCachePort) Invalidate(_ context.Context, locationID, serviceID int, day time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.invalidateCalls++
	m.lastInvalidateLocation = locationID
	m.lastInvalidateService = serviceID
	m.lastInvalidateDay = day
	return nil
}

func (m *mockCachePort) seed(locationID, serviceID int, day time.Time, slots domain.GroupedSlots) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKey(locationID, serviceID, day)] = mockCacheEntry{
		slots:  slots,
		expiry: time.Now().Add(time.Hour),
	}
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Timezone = "UTC"
	cfg.Cache.CacheOnly = true
	cfg.Precompute.HorizonDays = 2
	cfg.Precompute.UpstreamDelay = time.Nanosecond
	cfg.Catalog.AdminCategory = "ADMINISTRATIV"
	cfg.Locations.List = []domain.Location{
		{ID: 1, Name: "Arcu", Address: "Sos. Arcu nr. 79, Iasi"},
	}
	return cfg
}

// Один врач на ростере с одним окном на один день
func singlePractitionerFixture(day time.Time) (*mockSchedulePort, *mockCatalogPort) {
	schedule := &mockSchedulePort{
		roster: map[int][]domain.Practitioner{
			1: {
				{ID: 10, Name: "Ana Pop", SpecialtyID: 5, LocationID: 1},
			},
		},
		windows: []domain.AvailabilityWindow{
			{
				Start:          day.Add(9 * time.Hour),
				End:            day.Add(10 * time.Hour),
				PractitionerID: 10,
				LocationID:     1,
				SpecialtyID:    5,
				Available:      true,
			},
		},
	}
	catalog := &mockCatalogPort{
		services: []domain.Service{
			{Code: 100, Name: "Head Spa Premium", Category: "HEAD SPA", Price: 250, DurationMinutes: 30},
		},
	}
	return schedule, catalog
}
