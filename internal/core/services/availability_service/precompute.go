package availability_service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
	portsin "github.com/serenityspa/medsoft-availability-generator/internal/core/ports/in"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/out"
	"github.com/serenityspa/medsoft-availability-generator/internal/utils"
)

// Таймаут одной единицы работы батча (одна комбинация точка x услуга x день)
const precomputeUnitTimeout = 30 * time.Second

// Precompute обходит все точки x услуги x ближайшие N дней и прогревает кэш.
//
// Проход сериализован: параллельный запуск возвращает ErrPrecomputeRunning.
// Идемпотентен по ключу: живая кэш-запись не пересчитывается. Сбой одной
// единицы деградирует только ее, батч продолжается. Частота запросов
// к МедСофт ограничена limiter'ом.
func (s *AvailabilityService) Precompute(ctx context.Context) (portsin.PrecomputeReport, error) {
	if s.cachePort == nil {
		return portsin.PrecomputeReport{}, errors.New("cache is not configured")
	}

	if !s.precomputeMu.TryLock() {
		return portsin.PrecomputeReport{}, ErrPrecomputeRunning
	}
	defer s.precomputeMu.Unlock()

	report := portsin.PrecomputeReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}

	s.logger.Info("precompute.started", out.LogFields{
		"runId":       report.RunID,
		"horizonDays": s.cfg.Precompute.HorizonDays,
	})

	services, err := s.listServices(ctx)
	if err != nil {
		s.logger.Error("precompute.catalog.fetch_failed", out.LogFields{
			"runId": report.RunID,
			"error": err.Error(),
		})
		return report, err
	}

	clinicNow := time.Now().In(s.cfg.ClinicLocation())
	expiry := utils.EndOfDay(clinicNow)

	for day := 1; day <= s.cfg.Precompute.HorizonDays; day++ {
		date := utils.StartCurrentDay(clinicNow.AddDate(0, 0, day))

		for _, location := range s.cfg.Locations.List {
			for _, service := range services {
				if ctx.Err() != nil {
					report.Elapsed = time.Since(report.StartedAt).String()
					return report, ctx.Err()
				}

				report.Requested++

				// Живая запись - пропускаем, пересчет не нужен
				if _, ok := s.cachePort.GetSlots(ctx, location.ID, service.Code, date); ok {
					report.Skipped++
					continue
				}

				if err := s.limiter.Wait(ctx); err != nil {
					report.Elapsed = time.Since(report.StartedAt).String()
					return report, err
				}

				if err := s.precomputeUnit(ctx, location.ID, service.Code, date, expiry); err != nil {
					report.Failed++
					continue
				}
				report.Computed++
			}
		}
	}

	report.Elapsed = time.Since(report.StartedAt).String()

	s.logger.Info("precompute.finished", out.LogFields{
		"runId":     report.RunID,
		"requested": report.Requested,
		"computed":  report.Computed,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
		"elapsed":   report.Elapsed,
	})

	return report, nil
}

func (s *AvailabilityService) precomputeUnit(ctx context.Context, locationID, serviceID int, date, expiry time.Time) error {
	unitCtx, cancel := context.WithTimeout(ctx, precomputeUnitTimeout)
	defer cancel()

	slots, err := s.GenerateSlots(unitCtx, locationID, serviceID, date, utils.StartNextDay(date))
	if err != nil {
		s.logger.Warn("precompute.unit.failed", out.LogFields{
			"locationId": locationID,
			"serviceId":  serviceID,
			"date":       date.Format(domain.DateKey),
			"error":      err.Error(),
		})
		return err
	}

	if err := s.cachePort.StoreSlots(ctx, locationID, serviceID, date, slots, expiry); err != nil {
		s.logger.Warn("precompute.unit.store_failed", out.LogFields{
			"locationId": locationID,
			"serviceId":  serviceID,
			"date":       date.Format(domain.DateKey),
			"error":      err.Error(),
		})
		return err
	}

	return nil
}

// InvalidateSlots чистит кэш по маске ключа: нулевые части ключа
// означают "любое значение".
func (s *AvailabilityService) InvalidateSlots(ctx context.Context, locationID, serviceID int, day time.Time) error {
	if s.cachePort == nil {
		return nil
	}

	s.logger.Info("cache.invalidate", out.LogFields{
		"locationId": locationID,
		"serviceId":  serviceID,
		"date":       day.Format(domain.DateKey),
	})

	return s.cachePort.Invalidate(ctx, locationID, serviceID, day)
}
