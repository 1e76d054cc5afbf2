package domain

// Practitioner - врач, привязанный к точке клиники.
// Приходит из МедСофт по запросу locationDoctors, никогда не персистится.
type Practitioner struct {
	ID          int    `json:"doctorId"`
	Name        string `json:"name"`
	SpecialtyID int    `json:"specialtyId"`
	LocationID  int    `json:"locationId"`
}
