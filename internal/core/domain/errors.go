package domain

import "errors"

// Ошибки внешних коллабораторов. Запросы, задетые этими ошибками,
// деградируют до пустого результата, наружу они не фатальны.
var (
	// ErrUpstreamUnavailable - сеть/таймаут при обращении к МедСофт.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamMalformed - ответ МедСофт не удалось разобрать
	// даже аварийным парсером.
	ErrUpstreamMalformed = errors.New("upstream response malformed")
)

// Ошибки клиента: запрошен несуществующий идентификатор.
var (
	ErrServiceNotFound  = errors.New("service not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// IsUpstream - относится ли ошибка к внешнему бэкенду.
// Такие ошибки не отдаются клиенту как 5xx.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrUpstreamMalformed)
}
