package medsoft

import (
	"regexp"
	"strconv"

	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/out"
)

// SalvageParser - аварийный парсер для ответов, которые не прошли
// обычное JSON-декодирование. МедСофт периодически отдает прайс-лист
// с кривыми кавычками внутри названий услуг; парсер вытаскивает из
// испорченного тела те записи, которые удается изолировать.
//
// Вынесен за интерфейс, чтобы при переходе на строгий парсер
// не трогать вызывающий код.
type SalvageParser interface {
	SalvageServices(body []byte) []domain.Service
	SalvageScopes(body []byte) []domain.AppointmentScope
}

// Записи извлекаются по якорному полю "cod": от него до следующего
// якоря тело режется на фрагменты, из фрагментов достаются поля.
var (
	serviceAnchorRe  = regexp.MustCompile(`\{\s*"cod"\s*:\s*"?(\d+)"?`)
	fieldNameRe      = regexp.MustCompile(`"denumire"\s*:\s*"([^"]*)"`)
	fieldCategoryRe  = regexp.MustCompile(`"tip_serviciu"\s*:\s*"([^"]*)"`)
	fieldPriceRe     = regexp.MustCompile(`"pret"\s*:\s*"?([0-9.]+)"?`)
	fieldDurationRe  = regexp.MustCompile(`"durata"\s*:\s*"?(\d+)"?`)
	fieldDoctorRe    = regexp.MustCompile(`"cod_utilizator"\s*:\s*"?(\d+)"?`)
	fieldScopeNameRe = regexp.MustCompile(`"scop"\s*:\s*"([^"]*)"`)
)

type RegexSalvage struct {
	logger out.LoggerPort
}

func NewRegexSalvage(logger out.LoggerPort) *RegexSalvage {
	return &RegexSalvage{logger: logger.WithModule("RegexSalvage")}
}

// fragments режет тело на куски по якорю "cod" и возвращает пары
// (код, фрагмент до следующего якоря).
func fragments(body []byte) []struct {
	code int
	text string
} {
	locs := serviceAnchorRe.FindAllSubmatchIndex(body, -1)
	out := make([]struct {
		code int
		text string
	}, 0, len(locs))

	for i, loc := range locs {
		code, err := strconv.Atoi(string(body[loc[2]:loc[3]]))
		if err != nil {
			continue
		}

		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}

		out = append(out, struct {
			code int
			text string
		}{code: code, text: string(body[loc[0]:end])})
	}

	return out
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func firstGroupInt(re *regexp.Regexp, text string) int {
	n, _ := strconv.Atoi(firstGroup(re, text))
	return n
}

func (r *RegexSalvage) SalvageServices(body []byte) []domain.Service {
	var services []domain.Service

	for _, frag := range fragments(body) {
		name := firstGroup(fieldNameRe, frag.text)
		if name == "" {
			continue
		}

		price, _ := strconv.ParseFloat(firstGroup(fieldPriceRe, frag.text), 64)

		services = append(services, domain.Service{
			Code:            frag.code,
			Name:            name,
			Category:        firstGroup(fieldCategoryRe, frag.text),
			Price:           price,
			DurationMinutes: firstGroupInt(fieldDurationRe, frag.text),
			PractitionerID:  firstGroupInt(fieldDoctorRe, frag.text),
		})
	}

	if len(services) > 0 {
		r.logger.Warn("salvage.services.extracted", out.LogFields{
			"count": len(services),
		})
	}

	return services
}

func (r *RegexSalvage) SalvageScopes(body []byte) []domain.AppointmentScope {
	var scopes []domain.AppointmentScope

	for _, frag := range fragments(body) {
		name := firstGroup(fieldScopeNameRe, frag.text)
		if name == "" {
			continue
		}

		duration := firstGroupInt(fieldDurationRe, frag.text)
		if duration == 0 {
			duration = domain.DefaultServiceDurationMinutes
		}

		scopes = append(scopes, domain.AppointmentScope{
			Code:            frag.code,
			Name:            name,
			DurationMinutes: duration,
		})
	}

	if len(scopes) > 0 {
		r.logger.Warn("salvage.scopes.extracted", out.LogFields{
			"count": len(scopes),
		})
	}

	return scopes
}
