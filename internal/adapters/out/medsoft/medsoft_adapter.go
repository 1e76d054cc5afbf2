package medsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"time"

	"github.com/serenityspa/medsoft-availability-generator/internal/config"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/json_types"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/out"
)

const dateParamLayout = "2006-01-02"

// MedsoftAdapter - исходящий адаптер к API МедСофт
// (programari-online). Реализует SchedulePort и CatalogPort.
// Вся нормализация формы ответов происходит здесь, один раз.
type MedsoftAdapter struct {
	client  *http.Client
	cfg     *config.Config
	salvage SalvageParser
	logger  out.LoggerPort
}

func NewMedsoftAdapter(cfg *config.Config, logger out.LoggerPort) *MedsoftAdapter {
	return &MedsoftAdapter{
		client:  &http.Client{Timeout: cfg.MedSoft.Timeout},
		cfg:     cfg,
		salvage: NewRegexSalvage(logger),
		logger:  logger,
	}
}

// Конверт ответа МедСофт: полезные данные всегда в ReturnData,
// Status != 0 означает ошибку на стороне API.
type envelope struct {
	Status       json_types.FlexInt `json:"Status"`
	ReturnData   json.RawMessage    `json:"ReturnData"`
	ErrorMessage string             `json:"ErrorMessage"`
	ErrorCode    string             `json:"ErrorCode"`
	Message      string             `json:"Message"`
}

// Строки ответов в формате API. Наружу не выходят.

type priceListRow struct {
	Code      json_types.FlexInt     `json:"cod"`
	Name      string                 `json:"denumire"`
	Category  string                 `json:"tip_serviciu"`
	Price     json_types.FlexFloat   `json:"pret"`
	Duration  json_types.FlexInt     `json:"durata"`
	DoctorID  json_types.FlexInt     `json:"cod_utilizator"`
	Locations json_types.FlexIntList `json:"punct_lucru"`
}

type scopeRow struct {
	Code     json_types.FlexInt     `json:"cod"`
	Name     string                 `json:"scop"`
	Duration json_types.FlexInt     `json:"durata"`
	Services json_types.FlexIntList `json:"servicii"`
}

type doctorRow struct {
	DoctorID    json_types.FlexInt `json:"DoctorId"`
	Name        string             `json:"Name"`
	SpecialtyID json_types.FlexInt `json:"SpecialtyId"`
	LocationID  json_types.FlexInt `json:"LocationId"`
}

type scheduleRow struct {
	Start       json_types.DateTime `json:"StartDateTime"`
	End         json_types.DateTime `json:"EndDateTime"`
	DoctorID    json_types.FlexInt  `json:"DoctorId"`
	LocationID  json_types.FlexInt  `json:"LocationId"`
	SpecialtyID json_types.FlexInt  `json:"SpecialtyId"`
	IsAvailable json_types.FlexBool `json:"IsAvailable"`
}

// fetch выполняет GET к операции API и возвращает ReturnData.
// Второй результат - сырое тело для аварийного парсера, он непустой
// только при ErrUpstreamMalformed.
func (a *MedsoftAdapter) fetch(ctx context.Context, endpoint string, query nurl.Values) (json.RawMessage, []byte, error) {
	url := fmt.Sprintf("%s/%s/api/integrations/programari-online/public/%s%s",
		a.cfg.MedSoft.BaseURL, a.cfg.MedSoft.ClientPath, a.cfg.MedSoft.ClientPath, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("medsoft: build request: %w", err)
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("X-API-KEY", a.cfg.MedSoft.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("medsoft.request.failed", out.LogFields{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		return nil, nil, fmt.Errorf("medsoft %s: %v: %w", endpoint, err, domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("medsoft.request.bad_status", out.LogFields{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
		})
		return nil, nil, fmt.Errorf("medsoft %s: status %d: %w", endpoint, resp.StatusCode, domain.ErrUpstreamUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("medsoft %s: read body: %w", endpoint, domain.ErrUpstreamUnavailable)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		a.logger.Error("medsoft.response.decode_failed", out.LogFields{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		return nil, body, fmt.Errorf("medsoft %s: decode: %w", endpoint, domain.ErrUpstreamMalformed)
	}

	if env.Status.Int() != 0 {
		message := env.ErrorMessage
		if message == "" {
			message = env.Message
		}
		a.logger.Error("medsoft.response.api_error", out.LogFields{
			"endpoint":  endpoint,
			"status":    env.Status.Int(),
			"errorCode": env.ErrorCode,
			"message":   message,
		})
		return nil, nil, fmt.Errorf("medsoft %s: api error %q: %w", endpoint, message, domain.ErrUpstreamUnavailable)
	}

	return env.ReturnData, nil, nil
}

// ListServices возвращает прайс-лист (CatalogPort).
// При нечитаемом ответе пробует аварийный парсер и только потом сдается.
func (a *MedsoftAdapter) ListServices(ctx context.Context) ([]domain.Service, error) {
	a.logger.Info("medsoft.price_list.fetch", out.LogFields{})

	data, raw, err := a.fetch(ctx, a.cfg.MedSoft.EndpointPriceList, nil)
	if err != nil {
		if raw != nil {
			if salvaged := a.salvage.SalvageServices(raw); len(salvaged) > 0 {
				a.logger.Warn("medsoft.price_list.salvaged", out.LogFields{
					"count": len(salvaged),
				})
				return salvaged, nil
			}
		}
		return nil, err
	}

	var rows []priceListRow
	if err := json.Unmarshal(data, &rows); err != nil {
		if salvaged := a.salvage.SalvageServices(data); len(salvaged) > 0 {
			a.logger.Warn("medsoft.price_list.salvaged", out.LogFields{
				"count": len(salvaged),
			})
			return salvaged, nil
		}
		a.logger.Error("medsoft.price_list.decode_failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("medsoft price list: decode rows: %w", domain.ErrUpstreamMalformed)
	}

	services := make([]domain.Service, 0, len(rows))
	for _, row := range rows {
		services = append(services, domain.Service{
			Code:            row.Code.Int(),
			Name:            row.Name,
			Category:        row.Category,
			Price:           row.Price.Float64(),
			DurationMinutes: row.Duration.Int(),
			PractitionerID:  row.DoctorID.Int(),
			LocationIDs:     row.Locations,
		})
	}

	a.logger.Debug("medsoft.price_list.fetch_success", out.LogFields{
		"count": len(services),
	})

	return services, nil
}

// ListAppointmentScopes возвращает цели приема с длительностями (CatalogPort).
func (a *MedsoftAdapter) ListAppointmentScopes(ctx context.Context) ([]domain.AppointmentScope, error) {
	a.logger.Info("medsoft.scopes.fetch", out.LogFields{})

	data, raw, err := a.fetch(ctx, a.cfg.MedSoft.EndpointScopes, nil)
	if err != nil {
		if raw != nil {
			if salvaged := a.salvage.SalvageScopes(raw); len(salvaged) > 0 {
				a.logger.Warn("medsoft.scopes.salvaged", out.LogFields{
					"count": len(salvaged),
				})
				return salvaged, nil
			}
		}
		return nil, err
	}

	var rows []scopeRow
	if err := json.Unmarshal(data, &rows); err != nil {
		if salvaged := a.salvage.SalvageScopes(data); len(salvaged) > 0 {
			a.logger.Warn("medsoft.scopes.salvaged", out.LogFields{
				"count": len(salvaged),
			})
			return salvaged, nil
		}
		a.logger.Error("medsoft.scopes.decode_failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("medsoft scopes: decode rows: %w", domain.ErrUpstreamMalformed)
	}

	scopes := make([]domain.AppointmentScope, 0, len(rows))
	for _, row := range rows {
		scopes = append(scopes, domain.AppointmentScope{
			Code:            row.Code.Int(),
			Name:            row.Name,
			DurationMinutes: row.Duration.Int(),
			ServiceCodes:    row.Services,
		})
	}

	return scopes, nil
}

// GetLocationPractitioners возвращает ростер врачей точки (SchedulePort).
func (a *MedsoftAdapter) GetLocationPractitioners(ctx context.Context, locationID int) ([]domain.Practitioner, error) {
	a.logger.Info("medsoft.location_doctors.fetch", out.LogFields{
		"locationId": locationID,
	})

	query := nurl.Values{}
	query.Set("locationId", fmt.Sprintf("%d", locationID))

	data, _, err := a.fetch(ctx, a.cfg.MedSoft.EndpointLocationDoctors, query)
	if err != nil {
		return nil, err
	}

	var rows []doctorRow
	if err := json.Unmarshal(data, &rows); err != nil {
		a.logger.Error("medsoft.location_doctors.decode_failed", out.LogFields{
			"locationId": locationID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("medsoft location doctors: decode rows: %w", domain.ErrUpstreamMalformed)
	}

	practitioners := make([]domain.Practitioner, 0, len(rows))
	for _, row := range rows {
		if row.DoctorID.Int() == 0 {
			continue
		}
		practitioners = append(practitioners, domain.Practitioner{
			ID:          row.DoctorID.Int(),
			Name:        row.Name,
			SpecialtyID: row.SpecialtyID.Int(),
			LocationID:  row.LocationID.Int(),
		})
	}

	a.logger.Debug("medsoft.location_doctors.fetch_success", out.LogFields{
		"locationId": locationID,
		"count":      len(practitioners),
	})

	return practitioners, nil
}

// GetAvailabilityWindows возвращает интервалы доступности точки (SchedulePort).
// Интервалы с IsAvailable != 1 отбрасываются здесь и дальше ядра не идут.
func (a *MedsoftAdapter) GetAvailabilityWindows(ctx context.Context, locationID, practitionerID int, startDate, endDate time.Time) ([]domain.AvailabilityWindow, error) {
	a.logger.Info("medsoft.location_schedule.fetch", out.LogFields{
		"locationId": locationID,
		"doctorId":   practitionerID,
		"date":       startDate.Format(dateParamLayout),
		"dateEnd":    endDate.Format(dateParamLayout),
	})

	query := nurl.Values{}
	query.Set("locationId", fmt.Sprintf("%d", locationID))
	query.Set("date", startDate.Format(dateParamLayout))
	query.Set("dateEnd", endDate.Format(dateParamLayout))
	if practitionerID != 0 {
		query.Set("doctorId", fmt.Sprintf("%d", practitionerID))
	}

	data, _, err := a.fetch(ctx, a.cfg.MedSoft.EndpointLocationSchedule, query)
	if err != nil {
		return nil, err
	}

	var rows []scheduleRow
	if err := json.Unmarshal(data, &rows); err != nil {
		a.logger.Error("medsoft.location_schedule.decode_failed", out.LogFields{
			"locationId": locationID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("medsoft location schedule: decode rows: %w", domain.ErrUpstreamMalformed)
	}

	windows := make([]domain.AvailabilityWindow, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		if !row.IsAvailable.Bool() {
			dropped++
			continue
		}
		if row.Start.Date.IsZero() || row.End.Date.IsZero() || !row.End.Date.After(row.Start.Date) {
			dropped++
			continue
		}
		windows = append(windows, domain.AvailabilityWindow{
			Start:          row.Start.Date,
			End:            row.End.Date,
			PractitionerID: row.DoctorID.Int(),
			LocationID:     row.LocationID.Int(),
			SpecialtyID:    row.SpecialtyID.Int(),
			Available:      true,
		})
	}

	a.logger.Debug("medsoft.location_schedule.fetch_success", out.LogFields{
		"locationId": locationID,
		"windows":    len(windows),
		"dropped":    dropped,
	})

	return windows, nil
}
