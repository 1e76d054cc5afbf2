package availability_service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/serenityspa/medsoft-availability-generator/internal/config"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/out"
)

// ErrPrecomputeRunning - батч-проход уже выполняется.
// Прекомпьют сериализован: одновременно работает не больше одного прохода.
var ErrPrecomputeRunning = errors.New("precompute already running")

// TTL мемоизации справочников (прайс-лист, цели приема)
const catalogMemoTTL = 5 * time.Minute

type catalogMemo struct {
	services  []domain.Service
	scopes    []domain.AppointmentScope
	fetchedAt time.Time
}

type AvailabilityService struct {
	schedulePort out.SchedulePort
	catalogPort  out.CatalogPort
	cachePort    out.CachePort
	logger       out.LoggerPort
	cfg          *config.Config

	// Ограничитель частоты запросов к МедСофт внутри батча
	limiter *rate.Limiter

	precomputeMu sync.Mutex

	memoMu sync.Mutex
	memo   catalogMemo
}

func NewAvailabilityService(
	cfg *config.Config,
	schedulePort out.SchedulePort,
	catalogPort out.CatalogPort,
	cachePort out.CachePort,
	logger out.LoggerPort,
) *AvailabilityService {
	delay := cfg.Precompute.UpstreamDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	return &AvailabilityService{
		schedulePort: schedulePort,
		catalogPort:  catalogPort,
		cachePort:    cachePort,
		logger:       logger.WithModule("AvailabilityService"),
		cfg:          cfg,
		limiter:      rate.NewLimiter(rate.Every(delay), 1),
	}
}

// ListLocations возвращает справочник точек клиники из конфигурации.
func (s *AvailabilityService) ListLocations(_ context.Context) []domain.Location {
	return s.cfg.Locations.List
}
