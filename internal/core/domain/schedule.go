package domain

import "time"

// AvailabilityWindow - сырой интервал доступности из locationSchedule МедСофт.
// Интервалы не считаются непрерывными и могут пересекаться между собой.
type AvailabilityWindow struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	PractitionerID int       `json:"doctorId"`
	LocationID     int       `json:"locationId"`
	SpecialtyID    int       `json:"specialtyId"`
	Available      bool      `json:"available"`
}

// Duration - длина интервала.
func (w AvailabilityWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
