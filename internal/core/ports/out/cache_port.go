package out

import (
	"context"
	"time"

	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
)

// CachePort - кэш сгенерированных слотов с ключом (точка, услуга, день).
// Записи заменяются целиком и никогда не мутируются по частям, поэтому
// конкурентные читатели безопасны во время прекомпьюта.
type CachePort interface {
	// GetSlots возвращает слоты по ключу. false - записи нет или она истекла.
	GetSlots(ctx context.Context, locationID, serviceID int, day time.Time) (domain.GroupedSlots, bool)

	// StoreSlots сохраняет слоты по ключу со сроком жизни до expiry.
	StoreSlots(ctx context.Context, locationID, serviceID int, day time.Time, slots domain.GroupedSlots, expiry time.Time) error

	// Invalidate удаляет записи по ключу. Нулевые значения частей ключа
	// работают как маска: Invalidate(ctx, 1, 0, time.Time{}) чистит
	// все записи точки 1.
	Invalidate(ctx context.Context, locationID, serviceID int, day time.Time) error
}
