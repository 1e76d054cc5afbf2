package availability_service

import (
	"context"
	"time"

	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/out"
	"github.com/serenityspa/medsoft-availability-generator/internal/utils"
)

// ListAvailableSlots - читающий путь запроса слотов на день.
//
// В режиме cache-only промах кэша означает "данные еще не посчитаны":
// возвращается статус no-data, поход в МедСофт не выполняется. Заполнение
// кэша - забота батч-прекомпьюта, а не читающего пути. Это осознанный
// размен свежести на объем запросов к МедСофт.
func (s *AvailabilityService) ListAvailableSlots(ctx context.Context, locationID, serviceID int, day time.Time) (domain.AvailabilityResult, error) {
	day = utils.StartCurrentDay(day)

	if s.cachePort != nil {
		if slots, ok := s.cachePort.GetSlots(ctx, locationID, serviceID, day); ok {
			s.logger.Debug("slots.read.cache.hit", out.LogFields{
				"locationId": locationID,
				"serviceId":  serviceID,
				"date":       day.Format(domain.DateKey),
				"slotsCount": slots.Total(),
			})
			return domain.AvailabilityResult{Status: domain.AvailabilityStatusOK, Slots: slots}, nil
		}
	}

	if s.cfg.Cache.CacheOnly {
		s.logger.Info("slots.read.cache.miss_cache_only", out.LogFields{
			"locationId": locationID,
			"serviceId":  serviceID,
			"date":       day.Format(domain.DateKey),
		})
		return domain.AvailabilityResult{
			Status: domain.AvailabilityStatusNoData,
			Slots:  domain.GroupedSlots{},
		}, nil
	}

	// Live-режим: считаем на месте и кладем в кэш до конца дня
	slots, err := s.GenerateSlots(ctx, locationID, serviceID, day, utils.StartNextDay(day))
	if err != nil {
		return domain.AvailabilityResult{}, err
	}

	if s.cachePort != nil {
		expiry := utils.EndOfDay(time.Now().In(s.cfg.ClinicLocation()))
		if err := s.cachePort.StoreSlots(ctx, locationID, serviceID, day, slots, expiry); err != nil {
			s.logger.Warn("slots.read.cache.store_failed", out.LogFields{
				"locationId": locationID,
				"serviceId":  serviceID,
				"error":      err.Error(),
			})
		}
	}

	return domain.AvailabilityResult{Status: domain.AvailabilityStatusOK, Slots: slots}, nil
}
