package medsoft

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenityspa/medsoft-availability-generator/internal/adapters/out/logger"
	"github.com/serenityspa/medsoft-availability-generator/internal/config"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
)

func newTestAdapter(serverURL string) *MedsoftAdapter {
	cfg := &config.Config{}
	cfg.MedSoft.BaseURL = serverURL
	cfg.MedSoft.ClientPath = "serenity"
	cfg.MedSoft.APIKey = "test-key"
	cfg.MedSoft.Timeout = 5 * time.Second
	cfg.MedSoft.EndpointPriceList = "/priceList"
	cfg.MedSoft.EndpointScopes = "/appointmentScop"
	cfg.MedSoft.EndpointLocationDoctors = "/locationDoctors"
	cfg.MedSoft.EndpointLocationSchedule = "/locationSchedule"

	return NewMedsoftAdapter(cfg, logger.NewNopLogger())
}

func TestListServices_ParsesPriceList(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-KEY")
		// Числа приходят вперемешку: то строкой, то числом,
		// punct_lucru - то массивом, то строкой
		w.Write([]byte(`{
			"Status": 0,
			"ReturnData": [
				{"cod": "100", "denumire": "Head Spa Premium", "tip_serviciu": "HEAD SPA", "pret": "250.00", "durata": 30, "cod_utilizator": 0, "punct_lucru": [1, 3]},
				{"cod": 200, "denumire": "Terapie Ana", "tip_serviciu": "TERAPII", "pret": 150, "durata": "60", "cod_utilizator": "10", "punct_lucru": "1,3"}
			]
		}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	services, err := adapter.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 2)

	assert.Equal(t, "/serenity/api/integrations/programari-online/public/serenity/priceList", gotPath)
	assert.Equal(t, "test-key", gotKey)

	assert.Equal(t, 100, services[0].Code)
	assert.Equal(t, "Head Spa Premium", services[0].Name)
	assert.Equal(t, 250.0, services[0].Price)
	assert.Equal(t, 30, services[0].DurationMinutes)
	assert.Equal(t, []int{1, 3}, services[0].LocationIDs)
	assert.False(t, services[0].HasFixedPractitioner())

	assert.Equal(t, 200, services[1].Code)
	assert.Equal(t, 10, services[1].PractitionerID)
	assert.Equal(t, []int{1, 3}, services[1].LocationIDs)
}

func TestListServices_APIErrorIsUpstreamUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Status": 1, "ErrorMessage": "invalid api key", "ErrorCode": "401"}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	_, err := adapter.ListServices(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}

func TestListServices_BadStatusIsUpstreamUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	_, err := adapter.ListServices(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}

func TestListServices_ConnectionRefusedIsUpstreamUnavailable(t *testing.T) {
	adapter := newTestAdapter("http://127.0.0.1:1")

	_, err := adapter.ListServices(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}

func TestListServices_MalformedBodySalvaged(t *testing.T) {
	// Кривая кавычка внутри denumire ломает конверт целиком,
	// но аварийный парсер достает обе записи
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Status": 0, "ReturnData": [` +
			`{"cod": 100, "denumire": "Head Spa "Premium"", "tip_serviciu": "HEAD SPA", "pret": "250.00", "durata": 30},` +
			`{"cod": 200, "denumire": "Masaj Cranian", "tip_serviciu": "HEAD SPA", "pret": "150.00", "durata": 45}]}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	services, err := adapter.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, 100, services[0].Code)
	assert.Equal(t, "HEAD SPA", services[0].Category)
	assert.Equal(t, "Masaj Cranian", services[1].Name)
}

func TestListAppointmentScopes_ParsesScopes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"Status": 0,
			"ReturnData": [
				{"cod": 1, "scop": "Head Spa", "durata": "45", "servicii": [{"cod": 100}, {"cod": 101}]}
			]
		}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	scopes, err := adapter.ListAppointmentScopes(context.Background())
	require.NoError(t, err)
	require.Len(t, scopes, 1)
	assert.Equal(t, "Head Spa", scopes[0].Name)
	assert.Equal(t, 45, scopes[0].DurationMinutes)
	assert.Equal(t, []int{100, 101}, scopes[0].ServiceCodes)
}

func TestGetLocationPractitioners_SkipsZeroIDs(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{
			"Status": 0,
			"ReturnData": [
				{"DoctorId": 10, "Name": "Ana Pop", "SpecialtyId": "5", "LocationId": 1},
				{"DoctorId": 0, "Name": "Placeholder", "SpecialtyId": 0, "LocationId": 1}
			]
		}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	practitioners, err := adapter.GetLocationPractitioners(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "locationId=1", gotQuery)
	require.Len(t, practitioners, 1)
	assert.Equal(t, 10, practitioners[0].ID)
	assert.Equal(t, 5, practitioners[0].SpecialtyID)
}

func TestGetAvailabilityWindows_FiltersAtBoundary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("locationId"))
		assert.Equal(t, "2026-09-01", r.URL.Query().Get("date"))
		assert.Equal(t, "2026-09-02", r.URL.Query().Get("dateEnd"))
		// Занятый интервал, инвертированный интервал и пустая дата
		// отбрасываются на границе адаптера
		w.Write([]byte(`{
			"Status": 0,
			"ReturnData": [
				{"StartDateTime": "2026-09-01T09:00:00", "EndDateTime": "2026-09-01T10:00:00", "DoctorId": 10, "LocationId": 1, "SpecialtyId": 5, "IsAvailable": 1},
				{"StartDateTime": "2026-09-01T10:00:00", "EndDateTime": "2026-09-01T11:00:00", "DoctorId": 10, "LocationId": 1, "SpecialtyId": 5, "IsAvailable": "0"},
				{"StartDateTime": "2026-09-01T12:00:00", "EndDateTime": "2026-09-01T11:00:00", "DoctorId": 10, "LocationId": 1, "SpecialtyId": 5, "IsAvailable": true},
				{"StartDateTime": null, "EndDateTime": "2026-09-01T11:00:00", "DoctorId": 10, "LocationId": 1, "SpecialtyId": 5, "IsAvailable": 1}
			]
		}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	windows, err := adapter.GetAvailabilityWindows(context.Background(), 1, 0, start, start.AddDate(0, 0, 1))
	require.NoError(t, err)

	require.Len(t, windows, 1)
	assert.True(t, windows[0].Available)
	assert.Equal(t, 10, windows[0].PractitionerID)
	assert.Equal(t, time.Hour, windows[0].Duration())
}

func TestGetAvailabilityWindows_PassesDoctorFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("doctorId"))
		w.Write([]byte(`{"Status": 0, "ReturnData": []}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	windows, err := adapter.GetAvailabilityWindows(context.Background(), 1, 10, start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestGetAvailabilityWindows_MalformedRowsIsUpstreamMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Status": 0, "ReturnData": {"not": "a list"}}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	_, err := adapter.GetAvailabilityWindows(context.Background(), 1, 0, start, start.AddDate(0, 0, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamMalformed))
}
