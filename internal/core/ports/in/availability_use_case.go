package in

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
)

// AvailabilityUseCase - читающая поверхность ядра для витрины.
// Все операции идемпотентны; все, что отфильтровал Eligibility Filter,
// наружу не попадает.
type AvailabilityUseCase interface {
	// Список точек клиники
	ListLocations(ctx context.Context) []domain.Location

	// Категории услуг, у которых на точке есть хотя бы одна реально
	// доступная услуга
	ListCategories(ctx context.Context, locationID int) ([]domain.Category, error)

	// Услуги категории, доступные на точке, с разрешенной длительностью
	ListServicesForCategory(ctx context.Context, category string, locationID int) ([]domain.Service, error)

	// Слоты на день. В режиме cache-only промах кэша возвращает
	// статус no-data без похода в МедСофт.
	ListAvailableSlots(ctx context.Context, locationID, serviceID int, day time.Time) (domain.AvailabilityResult, error)

	// Генерация слотов за период, сгруппированных по дню и врачу
	GenerateSlots(ctx context.Context, locationID, serviceID int, startDate, endDate time.Time) (domain.GroupedSlots, error)
}

// PrecomputeReport - итог одного батч-прохода прекомпьюта.
type PrecomputeReport struct {
	RunID     uuid.UUID `json:"runId"`
	Requested int       `json:"requested"`
	Computed  int       `json:"computed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	StartedAt time.Time `json:"startedAt"`
	Elapsed   string    `json:"elapsed"`
}

// PrecomputeUseCase - батчевая прогрузка кэша слотов.
type PrecomputeUseCase interface {
	// Precompute обходит все точки x услуги x ближайшие N дней и кладет
	// результаты в кэш. Идемпотентен по ключу: живые записи не пересчитываются.
	Precompute(ctx context.Context) (PrecomputeReport, error)

	// InvalidateSlots чистит кэш по маске ключа (нули - любое значение)
	InvalidateSlots(ctx context.Context, locationID, serviceID int, day time.Time) error
}
