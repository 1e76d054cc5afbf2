package availability_service

import (
	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/out"
)

// Имя-заглушка для врачей, которые есть в расписании, но отсутствуют
// в ростере locationDoctors.
const unknownPractitionerName = "Doctor disponibil"

// rosterEligible - первый ярус фильтра допуска: только по услуге и ростеру,
// без данных расписания.
//
// Жесткая привязка к врачу означает ровно этого врача и только если он есть
// в ростере точки; отсутствие привязанного врача на точке значит, что услуга
// там не оказывается, а не что ее может выполнить кто угодно.
func rosterEligible(service domain.Service, locationID int, roster []domain.Practitioner) map[int]domain.Practitioner {
	eligible := make(map[int]domain.Practitioner)

	if !service.AvailableAt(locationID) {
		return eligible
	}

	if service.HasFixedPractitioner() {
		for _, p := range roster {
			if p.ID == service.PractitionerID {
				eligible[p.ID] = p
				break
			}
		}
		return eligible
	}

	for _, p := range roster {
		eligible[p.ID] = p
	}

	return eligible
}

// supplementRoster добавляет в ростер врачей, которые встречаются
// в расписании с реальной специальностью, но отсутствуют в locationDoctors.
// МедСофт иногда не отдает таких врачей в ростере, хотя у них есть
// забронируемые интервалы.
func supplementRoster(roster []domain.Practitioner, windows []domain.AvailabilityWindow) []domain.Practitioner {
	known := make(map[int]bool, len(roster))
	for _, p := range roster {
		known[p.ID] = true
	}

	out := roster
	for _, w := range windows {
		if w.PractitionerID == 0 || known[w.PractitionerID] {
			continue
		}
		if w.SpecialtyID == 0 {
			// Без специальности не считаем это реальной мощностью
			continue
		}

		out = append(out, domain.Practitioner{
			ID:          w.PractitionerID,
			Name:        unknownPractitionerName,
			SpecialtyID: w.SpecialtyID,
			LocationID:  w.LocationID,
		})
		known[w.PractitionerID] = true
	}

	return out
}

// specialtyCrossCheck - второй ярус фильтра для услуг без жесткой привязки:
// кандидат остается, только если его специальность встречается в данных
// расписания. Отсекает ростерные записи без реальной мощности.
func specialtyCrossCheck(eligible map[int]domain.Practitioner, windows []domain.AvailabilityWindow) map[int]domain.Practitioner {
	observed := make(map[int]bool)
	for _, w := range windows {
		if w.SpecialtyID != 0 {
			observed[w.SpecialtyID] = true
		}
	}

	checked := make(map[int]domain.Practitioner, len(eligible))
	for id, p := range eligible {
		if p.SpecialtyID != 0 && !observed[p.SpecialtyID] {
			continue
		}
		checked[id] = p
	}

	return checked
}

func (s *AvailabilityService) logEligibility(service domain.Service, locationID int, eligible map[int]domain.Practitioner) {
	if len(eligible) == 0 {
		s.logger.Info("eligibility.empty", out.LogFields{
			"serviceId":  service.Code,
			"locationId": locationID,
			"fixed":      service.HasFixedPractitioner(),
		})
		return
	}

	ids := make([]int, 0, len(eligible))
	for id := range eligible {
		ids = append(ids, id)
	}
	s.logger.Debug("eligibility.resolved", out.LogFields{
		"serviceId":  service.Code,
		"locationId": locationID,
		"doctorIds":  ids,
	})
}
