package domain

import "strings"

// DefaultServiceDurationMinutes - длительность по умолчанию, если не удалось
// разрешить длительность услуги ни по прайсу, ни по таблице целей приема.
const DefaultServiceDurationMinutes = 60

// Service - строка прайс-листа МедСофт (priceList).
// Нормализуется из формата API (cod, denumire, tip_serviciu, pret, durata,
// cod_utilizator, punct_lucru) на границе medsoft-адаптера.
type Service struct {
	Code            int     `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration"`

	// Жесткая привязка к врачу. 0 - услугу может выполнять любой врач точки.
	PractitionerID int `json:"-"`

	// Точки, где услуга доступна. Пустой список - доступна на всех точках.
	LocationIDs []int `json:"-"`
}

// AvailableAt проверяет, доступна ли услуга на точке (punct_lucru).
func (s Service) AvailableAt(locationID int) bool {
	if len(s.LocationIDs) == 0 {
		return true
	}

	for _, id := range s.LocationIDs {
		if id == locationID {
			return true
		}
	}

	return false
}

// HasFixedPractitioner - есть ли у услуги жесткая привязка к врачу.
func (s Service) HasFixedPractitioner() bool {
	return s.PractitionerID != 0
}

// AppointmentScope - цель приема из МедСофт (appointmentScop).
// Вторичный источник длительности услуги.
type AppointmentScope struct {
	Code            int    `json:"cod"`
	Name            string `json:"scop"`
	DurationMinutes int    `json:"durata"`
	ServiceCodes    []int  `json:"servicii"`
}

// Category - группа услуг для витрины. Выводится из множества значений
// tip_serviciu, отдельно не хранится.
type Category struct {
	Name         string `json:"name"`
	ServiceCount int    `json:"serviceCount"`
}

// NormalizeCategoryName убирает из названия категории пробелы и спецсимволы
// для нестрогого сравнения (названия приходят с фронта через URL-кодирование).
func NormalizeCategoryName(name string) string {
	replacer := strings.NewReplacer(" ", "", "&", "", "(", "", ")", "")
	return strings.ToUpper(replacer.Replace(name))
}
