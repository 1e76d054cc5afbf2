package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"

	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
)

type Environment string

const (
	EnvLocal      Environment = "local"
	EnvDev        Environment = "dev"
	EnvStage      Environment = "stage"
	EnvProduction Environment = "production"
)

type CacheBackend string

const (
	CacheBackendRedis  CacheBackend = "redis"
	CacheBackendMemory CacheBackend = "memory"
)

type ConfigBasicClient struct {
	Username string
	Password string
}

type Config struct {
	App struct {
		Version  string      `env:"APP_VERSION" envDefault:"local"`
		Env      Environment `env:"APP_ENV" envDefault:"local"`
		Timezone string      `env:"APP_TIMEZONE" envDefault:"Europe/Bucharest"`
	}

	HTTP struct {
		Port string `env:"HTTP_SERVER_PORT" envDefault:"8080"`
		Host string `env:"HTTP_SERVER_HOST" envDefault:"localhost"`
	}

	MedSoft struct {
		BaseURL    string `env:"MEDSOFT_BASE_URL"`
		ClientPath string `env:"MEDSOFT_CLIENT_PATH"`
		APIKey     string `env:"MEDSOFT_API_KEY"`

		// Таймаут одного запроса к МедСофт
		Timeout time.Duration `env:"MEDSOFT_TIMEOUT" envDefault:"20s"`

		// Имена операций API. Одно настроенное имя на операцию,
		// никакого перебора вариантов маршрутов в рантайме.
		EndpointPriceList        string `env:"MEDSOFT_ENDPOINT_PRICE_LIST" envDefault:"/priceList"`
		EndpointScopes           string `env:"MEDSOFT_ENDPOINT_SCOPES" envDefault:"/appointmentScop"`
		EndpointLocationDoctors  string `env:"MEDSOFT_ENDPOINT_LOCATION_DOCTORS" envDefault:"/locationDoctors"`
		EndpointLocationSchedule string `env:"MEDSOFT_ENDPOINT_LOCATION_SCHEDULE" envDefault:"/locationSchedule"`
	}

	Auth struct {
		BasicClientsString string `env:"AUTH_BASIC_CLIENTS" envDefault:"availability_generator:availability_generator"`
		BasicClients       []ConfigBasicClient
	}

	RabbitMQ struct {
		Enabled  bool   `env:"RABBITMQ_ENABLED"`
		URL      string `env:"RABBITMQ_URL"`
		Exchange string `env:"RABBITMQ_EXCHANGE" envDefault:"medsoft.events"`
		Queue    string `env:"RABBITMQ_QUEUE" envDefault:"availability-generator.events"`
	}

	Cache struct {
		// cache-only: читающие запросы слотов ходят только в кэш,
		// генерация выполняется исключительно батч-прекомпьютом
		CacheOnly bool         `env:"CACHE_ONLY_MODE" envDefault:"true"`
		Backend   CacheBackend `env:"CACHE_BACKEND" envDefault:"redis"`
		RedisAddr string       `env:"CACHE_REDIS_ADDR" envDefault:"localhost:6379"`
		RedisDB   int          `env:"CACHE_REDIS_DB" envDefault:"0"`
		LRUSize   int          `env:"CACHE_LRU_SIZE" envDefault:"1000"`
	}

	Precompute struct {
		// Горизонт прекомпьюта в днях вперед
		HorizonDays int `env:"PRECOMPUTE_HORIZON_DAYS" envDefault:"7"`

		// Минимальный интервал между запросами к МедСофт внутри батча
		UpstreamDelay time.Duration `env:"PRECOMPUTE_UPSTREAM_DELAY" envDefault:"100ms"`

		// Период автоматического запуска. 0 - только по явному триггеру.
		Interval time.Duration `env:"PRECOMPUTE_INTERVAL" envDefault:"0"`
	}

	Catalog struct {
		// Категории, навсегда исключенные из выдачи. Конфигурация,
		// а не бизнес-логика: меняется без правки алгоритма.
		ExcludedCategoriesString string `env:"CATALOG_EXCLUDED_CATEGORIES" envDefault:"TRATAMENTE FACIALE,DRENAJ (PRESOTERAPIE & TERMOTERAPIE),EPILARE DEFINITIVA LASER,REMODELARE CORPORALA,TERAPIE CRANIO-SACRALA"`
		ExcludedCategories       []string

		// Административная псевдокатегория, никогда не видимая витрине
		AdminCategory string `env:"CATALOG_ADMIN_CATEGORY" envDefault:"ADMINISTRATIV"`
	}

	Locations struct {
		// Точки клиники: "id:name:address|id:name:address"
		String string `env:"CLINIC_LOCATIONS" envDefault:"1:Serenity HeadSpa ARCU:Sos. Arcu nr. 79, Iasi|2:Serenity HeadSpa Bucuresti:Bucuresti|3:Serenity HeadSpa CARPATI:Strada Carpati nr. 9A, Iasi"`
		List   []domain.Location
	}
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Приведение окружения к нижнему регистру для унификации
	cfg.App.Env = Environment(strings.ToLower(string(cfg.App.Env)))

	// Разбор basic-клиентов
	if cfg.Auth.BasicClients == nil {
		cfg.Auth.BasicClients = []ConfigBasicClient{}
	}
	clientPairs := strings.Split(cfg.Auth.BasicClientsString, ",")
	for _, pair := range clientPairs {
		parts := strings.Split(pair, ":")
		if len(parts) == 2 {
			cfg.Auth.BasicClients = append(cfg.Auth.BasicClients, ConfigBasicClient{
				Username: parts[0],
				Password: parts[1],
			})
		}
	}

	// Разбор исключенных категорий
	for _, cat := range strings.Split(cfg.Catalog.ExcludedCategoriesString, ",") {
		cat = strings.TrimSpace(cat)
		if cat != "" {
			cfg.Catalog.ExcludedCategories = append(cfg.Catalog.ExcludedCategories, cat)
		}
	}

	// Разбор точек клиники
	for _, entry := range strings.Split(cfg.Locations.String, "|") {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		loc := domain.Location{ID: id, Name: strings.TrimSpace(parts[1])}
		if len(parts) == 3 {
			loc.Address = strings.TrimSpace(parts[2])
		}
		cfg.Locations.List = append(cfg.Locations.List, loc)
	}

	return cfg, nil
}

// Location возвращает точку по идентификатору.
func (c *Config) Location(id int) (domain.Location, bool) {
	for _, loc := range c.Locations.List {
		if loc.ID == id {
			return loc, true
		}
	}
	return domain.Location{}, false
}

// CategoryExcluded - входит ли категория в исключенный список
// или является административной псевдокатегорией.
func (c *Config) CategoryExcluded(category string) bool {
	normalized := domain.NormalizeCategoryName(category)
	if normalized == domain.NormalizeCategoryName(c.Catalog.AdminCategory) {
		return true
	}
	for _, excluded := range c.Catalog.ExcludedCategories {
		if normalized == domain.NormalizeCategoryName(excluded) {
			return true
		}
	}
	return false
}

// ClinicLocation возвращает таймзону клиники из конфигурации.
func (c *Config) ClinicLocation() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsLocal() bool {
	return c.App.Env == EnvLocal
}

func (c *Config) IsNotLocal() bool {
	return c.App.Env == EnvDev || c.App.Env == EnvStage || c.App.Env == EnvProduction
}
