package domain

// Location - физическая точка клиники. Справочные данные, задаются при деплое.
type Location struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}
