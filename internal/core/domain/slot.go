package domain

import "time"

// Slot - забронируемый интервал фиксированной длительности, нарезанный из
// AvailabilityWindow. Длительность слота всегда равна длительности услуги.
type Slot struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	PractitionerID   int       `json:"doctorId"`
	PractitionerName string    `json:"doctorName"`
	LocationID       int       `json:"locationId"`
	SpecialtyID      int       `json:"specialtyId"`
}

// PractitionerSlots - слоты одного врача в рамках одного дня.
type PractitionerSlots struct {
	PractitionerID   int    `json:"doctorId"`
	PractitionerName string `json:"doctorName"`
	Slots            []Slot `json:"slots"`
}

// DateKey - формат ключа дня в сгруппированном ответе.
const DateKey = "2006-01-02"

// GroupedSlots - слоты, сгруппированные по дню, внутри дня - по врачу.
// Врачи отсортированы по имени, слоты врача - по времени начала.
type GroupedSlots map[string][]PractitionerSlots

// Total - суммарное количество слотов по всем дням.
func (g GroupedSlots) Total() int {
	total := 0
	for _, day := range g {
		for _, ps := range day {
			total += len(ps.Slots)
		}
	}
	return total
}

// AvailabilityResultStatus различает "подтвержденный ноль" и
// "данные еще не посчитаны" в режиме cache-only.
type AvailabilityResultStatus string

const (
	// AvailabilityStatusOK - слоты посчитаны (возможно, их ноль).
	AvailabilityStatusOK AvailabilityResultStatus = "ok"
	// AvailabilityStatusNoData - кэш пуст, генерация не выполнялась.
	AvailabilityStatusNoData AvailabilityResultStatus = "no-data"
)

// AvailabilityResult - ответ на запрос слотов.
type AvailabilityResult struct {
	Status AvailabilityResultStatus `json:"status"`
	Slots  GroupedSlots             `json:"slots"`
}
