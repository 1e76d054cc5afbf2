package availability_service

import "github.com/serenityspa/medsoft-availability-generator/internal/core/domain"

type SlotSlice []domain.Slot

// quickSort - сортировка слотов по времени начала
func (s SlotSlice) quickSort() SlotSlice {
	if len(s) < 2 {
		return s
	}

	// Выбираем опорный элемент
	pivot := s[len(s)/2]

	// Разделяем слайс на три части
	less := SlotSlice{}
	equal := SlotSlice{}
	greater := SlotSlice{}

	for _, slot := range s {
		if slot.Start.Before(pivot.Start) {
			less = append(less, slot)
		} else if slot.Start.Equal(pivot.Start) {
			equal = append(equal, slot)
		} else {
			greater = append(greater, slot)
		}
	}

	// Рекурсивно сортируем подмассивы и объединяем их
	return append(append(less.quickSort(), equal...), greater.quickSort()...)
}
