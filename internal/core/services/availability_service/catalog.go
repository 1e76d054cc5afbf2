package availability_service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/out"
	"github.com/serenityspa/medsoft-availability-generator/internal/utils"
)

// listServices возвращает прайс-лист без исключенных категорий.
// Справочник мемоизируется, чтобы батч-прекомпьют не дергал МедСофт
// на каждую комбинацию.
func (s *AvailabilityService) listServices(ctx context.Context) ([]domain.Service, error) {
	s.memoMu.Lock()
	defer s.memoMu.Unlock()

	if s.memo.services != nil && time.Since(s.memo.fetchedAt) < catalogMemoTTL {
		return s.memo.services, nil
	}

	services, err := s.catalogPort.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog.services.fetch_failed: %w", err)
	}

	filtered := make([]domain.Service, 0, len(services))
	for _, svc := range services {
		if s.cfg.CategoryExcluded(svc.Category) {
			continue
		}
		filtered = append(filtered, svc)
	}

	scopes, err := s.catalogPort.ListAppointmentScopes(ctx)
	if err != nil {
		// Цели приема - вторичный источник длительности, без них можно жить
		s.logger.Warn("catalog.scopes.fetch_failed", out.LogFields{
			"error": err.Error(),
		})
		scopes = nil
	}

	s.memo = catalogMemo{
		services:  filtered,
		scopes:    scopes,
		fetchedAt: time.Now(),
	}

	return filtered, nil
}

func (s *AvailabilityService) findService(ctx context.Context, serviceID int) (domain.Service, error) {
	services, err := s.listServices(ctx)
	if err != nil {
		return domain.Service{}, err
	}

	for _, svc := range services {
		if svc.Code == serviceID {
			return svc, nil
		}
	}

	return domain.Service{}, fmt.Errorf("service %d: %w", serviceID, domain.ErrServiceNotFound)
}

// resolveDuration разрешает длительность услуги: собственное поле прайса,
// затем таблица целей приема по коду услуги, затем дефолт 60 минут.
// Дефолт - деградация, а не ошибка.
func (s *AvailabilityService) resolveDuration(ctx context.Context, service domain.Service) time.Duration {
	if service.DurationMinutes > 0 {
		return time.Duration(service.DurationMinutes) * time.Minute
	}

	s.memoMu.Lock()
	scopes := s.memo.scopes
	s.memoMu.Unlock()

	for _, scope := range scopes {
		for _, code := range scope.ServiceCodes {
			if code == service.Code && scope.DurationMinutes > 0 {
				return time.Duration(scope.DurationMinutes) * time.Minute
			}
		}
	}

	s.logger.Warn("catalog.duration.defaulted", out.LogFields{
		"serviceId": service.Code,
		"minutes":   domain.DefaultServiceDurationMinutes,
	})

	return domain.DefaultServiceDurationMinutes * time.Minute
}

// withResolvedDuration возвращает копию услуги с заполненной длительностью.
func (s *AvailabilityService) withResolvedDuration(ctx context.Context, service domain.Service) domain.Service {
	service.DurationMinutes = int(s.resolveDuration(ctx, service) / time.Minute)
	return service
}

// serviceBookable - доступна ли услуга на точке: непустой допуск по ростеру
// плюс, если кэш уже посчитан, хотя бы один реальный слот на ближайшую дату.
// Отсутствие кэш-записи не наказывает услугу: решает допуск.
func (s *AvailabilityService) serviceBookable(ctx context.Context, service domain.Service, locationID int, roster []domain.Practitioner) bool {
	if len(rosterEligible(service, locationID, roster)) == 0 {
		return false
	}

	if s.cachePort == nil {
		return true
	}

	probeDay := utils.StartNextDay(time.Now().In(s.cfg.ClinicLocation()))
	if slots, ok := s.cachePort.GetSlots(ctx, locationID, service.Code, probeDay); ok {
		return slots.Total() > 0
	}

	return true
}

// ListCategories возвращает категории, у которых на точке доступна
// хотя бы одна услуга. Исключенные и административная псевдокатегория
// не попадают в выдачу никогда, независимо от счетчиков.
func (s *AvailabilityService) ListCategories(ctx context.Context, locationID int) ([]domain.Category, error) {
	services, err := s.listServices(ctx)
	if err != nil {
		s.logger.Warn("categories.list.degraded", out.LogFields{
			"locationId": locationID,
			"error":      err.Error(),
		})
		return []domain.Category{}, nil
	}

	roster, err := s.schedulePort.GetLocationPractitioners(ctx, locationID)
	if err != nil {
		s.logger.Warn("categories.roster.fetch_failed", out.LogFields{
			"locationId": locationID,
			"error":      err.Error(),
		})
		return []domain.Category{}, nil
	}

	counts := make(map[string]int)
	for _, svc := range services {
		if svc.Category == "" {
			continue
		}
		if !s.serviceBookable(ctx, svc, locationID, roster) {
			continue
		}
		counts[svc.Category]++
	}

	categories := make([]domain.Category, 0, len(counts))
	for name, count := range counts {
		categories = append(categories, domain.Category{Name: name, ServiceCount: count})
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})

	s.logger.Debug("categories.list.finished", out.LogFields{
		"locationId": locationID,
		"count":      len(categories),
	})

	return categories, nil
}

// ListServicesForCategory возвращает услуги категории, доступные на точке,
// с разрешенной длительностью. Название категории сравнивается нестрого:
// с фронта оно приходит через URL-кодирование и теряет спецсимволы.
func (s *AvailabilityService) ListServicesForCategory(ctx context.Context, category string, locationID int) ([]domain.Service, error) {
	services, err := s.listServices(ctx)
	if err != nil {
		s.logger.Warn("category_services.list.degraded", out.LogFields{
			"category": category,
			"error":    err.Error(),
		})
		return []domain.Service{}, nil
	}

	canonical := ""
	normalized := domain.NormalizeCategoryName(category)
	for _, svc := range services {
		if domain.NormalizeCategoryName(svc.Category) == normalized {
			canonical = svc.Category
			break
		}
	}
	if canonical == "" {
		return nil, fmt.Errorf("category %q: %w", category, domain.ErrCategoryNotFound)
	}

	roster, err := s.schedulePort.GetLocationPractitioners(ctx, locationID)
	if err != nil {
		s.logger.Warn("category_services.roster.fetch_failed", out.LogFields{
			"locationId": locationID,
			"error":      err.Error(),
		})
		return []domain.Service{}, nil
	}

	result := make([]domain.Service, 0)
	for _, svc := range services {
		if svc.Category != canonical {
			continue
		}
		if !s.serviceBookable(ctx, svc, locationID, roster) {
			continue
		}
		result = append(result, s.withResolvedDuration(ctx, svc))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}
