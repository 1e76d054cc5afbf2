package json_types

import (
	"encoding/json"
	"fmt"
	"time"
)

// ClinicZone - таймзона клиники для дат без явной таймзоны.
// МедСофт отдает даты вида "2025-07-10T09:00:00" без смещения.
var ClinicZone = time.FixedZone("UTC+2", 2*60*60)

func parseDate(str string) (time.Time, error) {
	parsedDate, err := time.Parse(time.RFC3339, str)
	// Если не удалось, пробуем дату со временем, но без таймзоны
	if err != nil {
		parsedDate, err = time.ParseInLocation("2006-01-02T15:04:05", str, ClinicZone)
		if err != nil {
			// Если не удалось, пробуем дату со временем через пробел
			parsedDate, err = time.ParseInLocation("2006-01-02 15:04:05", str, ClinicZone)
			if err != nil {
				// Если не удалось, пробуем как дату без времени
				parsedDate, err = time.ParseInLocation("2006-01-02", str, ClinicZone)
				if err != nil {
					return time.Time{}, fmt.Errorf("failed to parse time: %v", err)
				}
			}
		}
	}

	return parsedDate, nil
}

type DateTime struct {
	Date time.Time
}

func (t *DateTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" || len(data) < 2 {
		return nil
	}

	// Убираем кавычки вокруг строки
	str := string(data[1 : len(data)-1])

	parsedDate, err := parseDate(str)
	if err != nil {
		return err
	}

	*t = DateTime{Date: parsedDate}
	return nil
}

func (t DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Date.Format("2006-01-02T15:04:05"))
}

type Date struct {
	Date time.Time
}

func (t *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" || len(data) < 2 {
		return nil
	}

	// Убираем кавычки вокруг строки
	str := string(data[1 : len(data)-1])

	parsedDate, err := parseDate(str)
	if err != nil {
		return err
	}

	*t = Date{Date: parsedDate}
	return nil
}

func (t Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Date.Format("2006-01-02"))
}
