package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
)

const keyPrefix = "slots"

// slotsKey строит ключ кэша slots:{locationId}:{serviceId}:{date}.
func slotsKey(locationID, serviceID int, day time.Time) string {
	return fmt.Sprintf("%s:%d:%d:%s", keyPrefix, locationID, serviceID, day.Format(domain.DateKey))
}

// slotsKeyPattern строит маску ключей для частичной инвалидации:
// нулевые части ключа превращаются в "*".
func slotsKeyPattern(locationID, serviceID int, day time.Time) string {
	location := "*"
	if locationID != 0 {
		location = fmt.Sprintf("%d", locationID)
	}

	service := "*"
	if serviceID != 0 {
		service = fmt.Sprintf("%d", serviceID)
	}

	date := "*"
	if !day.IsZero() {
		date = day.Format(domain.DateKey)
	}

	return strings.Join([]string{keyPrefix, location, service, date}, ":")
}

// matchKey - проверка ключа по маске, где "*" в части маски
// совпадает с любым значением части ключа.
func matchKey(key, pattern string) bool {
	keyParts := strings.Split(key, ":")
	patternParts := strings.Split(pattern, ":")
	if len(keyParts) != len(patternParts) {
		return false
	}

	for i := range patternParts {
		if patternParts[i] == "*" {
			continue
		}
		if keyParts[i] != patternParts[i] {
			return false
		}
	}

	return true
}
