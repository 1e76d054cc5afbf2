package availability_service

import (
	"context"
	"sort"
	"time"

	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/out"
)

// GenerateSlots раскрывает интервалы доступности точки в слоты длительности
// услуги, сгруппированные по дню и врачу.
//
// Порядок строгий: сначала допуск по ростеру, и только при непустом допуске -
// запрос интервалов. Пустой допуск закрывает пару (услуга, точка) наглухо,
// без единого запроса расписания.
func (s *AvailabilityService) GenerateSlots(ctx context.Context, locationID, serviceID int, startDate, endDate time.Time) (domain.GroupedSlots, error) {
	s.logger.Info("slots.generate.started", out.LogFields{
		"locationId": locationID,
		"serviceId":  serviceID,
		"startDate":  startDate.Format(domain.DateKey),
		"endDate":    endDate.Format(domain.DateKey),
	})

	service, err := s.findService(ctx, serviceID)
	if err != nil {
		// Недоступный каталог деградирует до пустого результата,
		// несуществующая услуга - ошибка клиента
		if domain.IsUpstream(err) {
			s.logger.Warn("slots.generate.catalog.fetch_failed", out.LogFields{
				"serviceId": serviceID,
				"error":     err.Error(),
			})
			return domain.GroupedSlots{}, nil
		}
		return nil, err
	}

	roster, err := s.schedulePort.GetLocationPractitioners(ctx, locationID)
	if err != nil {
		// Деградация до пустого результата, наружу не фатально
		s.logger.Warn("slots.generate.roster.fetch_failed", out.LogFields{
			"locationId": locationID,
			"error":      err.Error(),
		})
		return domain.GroupedSlots{}, nil
	}

	eligible := rosterEligible(service, locationID, roster)
	if len(eligible) == 0 {
		s.logEligibility(service, locationID, eligible)
		return domain.GroupedSlots{}, nil
	}

	windows, err := s.schedulePort.GetAvailabilityWindows(ctx, locationID, 0, startDate, endDate)
	if err != nil {
		s.logger.Warn("slots.generate.windows.fetch_failed", out.LogFields{
			"locationId": locationID,
			"error":      err.Error(),
		})
		return domain.GroupedSlots{}, nil
	}

	// Для услуг без жесткой привязки: дополняем ростер врачами из расписания
	// и отсекаем кандидатов, чьей специальности в расписании нет
	if !service.HasFixedPractitioner() {
		roster = supplementRoster(roster, windows)
		eligible = rosterEligible(service, locationID, roster)
		eligible = specialtyCrossCheck(eligible, windows)
	}

	s.logEligibility(service, locationID, eligible)
	if len(eligible) == 0 {
		return domain.GroupedSlots{}, nil
	}

	duration := s.resolveDuration(ctx, service)

	slots := generateFromWindows(windows, eligible, duration)

	s.logger.Debug("slots.generate.finished", out.LogFields{
		"locationId": locationID,
		"serviceId":  serviceID,
		"slotsCount": len(slots),
	})

	return groupSlots(slots), nil
}

// generateFromWindows нарезает интервалы на слоты ровно по duration,
// начиная от начала интервала. Остаток короче duration отбрасывается.
// Пересекающиеся интервалы одного врача дают пересекающиеся слоты -
// это осознанный сквозной проброс данных МедСофт, без дедупликации.
func generateFromWindows(windows []domain.AvailabilityWindow, eligible map[int]domain.Practitioner, duration time.Duration) []domain.Slot {
	slots := make([]domain.Slot, 0)

	for _, w := range windows {
		if !w.Available {
			continue
		}

		practitioner, ok := eligible[w.PractitionerID]
		if !ok {
			continue
		}

		for current := w.Start; !current.Add(duration).After(w.End); current = current.Add(duration) {
			slots = append(slots, domain.Slot{
				Start:            current,
				End:              current.Add(duration),
				PractitionerID:   practitioner.ID,
				PractitionerName: practitioner.Name,
				LocationID:       w.LocationID,
				SpecialtyID:      w.SpecialtyID,
			})
		}
	}

	return slots
}

// groupSlots группирует слоты по дню начала, внутри дня - по врачу.
// Врачи упорядочены по имени, слоты врача - по времени начала.
func groupSlots(slots []domain.Slot) domain.GroupedSlots {
	grouped := make(domain.GroupedSlots)

	byDayAndPractitioner := make(map[string]map[int][]domain.Slot)
	names := make(map[int]string)

	for _, slot := range slots {
		day := slot.Start.Format(domain.DateKey)
		if byDayAndPractitioner[day] == nil {
			byDayAndPractitioner[day] = make(map[int][]domain.Slot)
		}
		byDayAndPractitioner[day][slot.PractitionerID] = append(byDayAndPractitioner[day][slot.PractitionerID], slot)
		names[slot.PractitionerID] = slot.PractitionerName
	}

	for day, byPractitioner := range byDayAndPractitioner {
		daySlots := make([]domain.PractitionerSlots, 0, len(byPractitioner))

		for id, ps := range byPractitioner {
			daySlots = append(daySlots, domain.PractitionerSlots{
				PractitionerID:   id,
				PractitionerName: names[id],
				Slots:            SlotSlice(ps).quickSort(),
			})
		}

		sort.Slice(daySlots, func(i, j int) bool {
			if daySlots[i].PractitionerName == daySlots[j].PractitionerName {
				return daySlots[i].PractitionerID < daySlots[j].PractitionerID
			}
			return daySlots[i].PractitionerName < daySlots[j].PractitionerName
		})

		grouped[day] = daySlots
	}

	return grouped
}
