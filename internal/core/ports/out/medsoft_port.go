package out

import (
	"context"
	"time"

	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
)

// SchedulePort - чтение расписания из МедСофт.
// Мутации записей (create/cancel) этим ядром не выполняются.
type SchedulePort interface {
	// Ростер врачей точки (locationDoctors)
	GetLocationPractitioners(ctx context.Context, locationID int) ([]domain.Practitioner, error)

	// Интервалы доступности точки за период (locationSchedule).
	// practitionerID = 0 - интервалы всех врачей точки.
	// Интервалы с IsAvailable != 1 отбрасываются на этой границе.
	GetAvailabilityWindows(ctx context.Context, locationID, practitionerID int, startDate, endDate time.Time) ([]domain.AvailabilityWindow, error)
}

// CatalogPort - чтение каталога услуг из МедСофт.
type CatalogPort interface {
	// Полный прайс-лист (priceList)
	ListServices(ctx context.Context) ([]domain.Service, error)

	// Цели приема с длительностями (appointmentScop)
	ListAppointmentScopes(ctx context.Context) ([]domain.AppointmentScope, error)
}
