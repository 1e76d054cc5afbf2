package json_types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// МедСофт отдает одни и те же поля то числом, то строкой, то булевым.
// Вся нормализация формы происходит здесь, один раз, на границе адаптера.

// FlexInt - целое, которое может прийти числом ("cod": 202)
// или строкой ("cod": "202").
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}

	n, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}

	*f = FlexInt(n)
	return nil
}

func (f FlexInt) Int() int {
	return int(f)
}

// FlexFloat - число, которое может прийти строкой ("pret": "150.00").
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}

	*f = FlexFloat(v)
	return nil
}

func (f FlexFloat) Float64() float64 {
	return float64(f)
}

// FlexBool - флаг, который может прийти как true/false, 1/0 или "1"/"0"
// (IsAvailable в locationSchedule).
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	switch strings.ToLower(str) {
	case "1", "true":
		*f = true
	case "0", "false", "", "null":
		*f = false
	default:
		// Неожиданное значение считаем недоступностью
		*f = false
	}
	return nil
}

func (f FlexBool) Bool() bool {
	return bool(f)
}

// FlexIntList - список целых, который может прийти массивом чисел,
// массивом объектов {"cod": N} или строкой "1,3".
type FlexIntList []int

func (f *FlexIntList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = nil
		return nil
	}

	// Строка вида "1,3"
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*f = parseIntList(raw)
		return nil
	}

	if data[0] == '[' {
		// Пробуем как массив чисел
		var ints []FlexInt
		if err := json.Unmarshal(data, &ints); err == nil {
			out := make([]int, 0, len(ints))
			for _, v := range ints {
				out = append(out, v.Int())
			}
			*f = out
			return nil
		}

		// Пробуем как массив объектов со ссылкой на код
		var refs []struct {
			Code FlexInt `json:"cod"`
		}
		if err := json.Unmarshal(data, &refs); err != nil {
			return err
		}
		out := make([]int, 0, len(refs))
		for _, r := range refs {
			out = append(out, r.Code.Int())
		}
		*f = out
		return nil
	}

	// Одиночное число
	var single FlexInt
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*f = []int{single.Int()}
	return nil
}

func parseIntList(raw string) []int {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			out = append(out, n)
		}
	}
	return out
}
