package utils

import (
	"fmt"
	"time"
)

// StartCurrentDay возвращает начало дня (00:00) для переданной даты,
// таймзона остается прежней.
func StartCurrentDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartNextDay возвращает новую дату, где день увеличен на 1, время
// установлено на 00:00, а таймзона остается прежней.
func StartNextDay(t time.Time) time.Time {
	return StartCurrentDay(t.AddDate(0, 0, 1))
}

// EndOfDay возвращает момент окончания календарного дня.
// Используется как срок жизни кэш-записей: кэш живет до конца дня клиники.
func EndOfDay(t time.Time) time.Time {
	return StartNextDay(t)
}

// SameDay - относятся ли два момента к одному календарному дню.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// ParseDay парсит дату без времени в указанной таймзоне.
func ParseDay(str string, loc *time.Location) (time.Time, error) {
	parsed, err := time.ParseInLocation("2006-01-02", str, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date: %v", err)
	}
	return parsed, nil
}
