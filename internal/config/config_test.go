package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.App.Env)
	assert.Equal(t, "Europe/Bucharest", cfg.App.Timezone)
	assert.True(t, cfg.Cache.CacheOnly)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 7, cfg.Precompute.HorizonDays)

	require.NotEmpty(t, cfg.Auth.BasicClients)
	assert.Equal(t, "availability_generator", cfg.Auth.BasicClients[0].Username)

	// Точки клиники из дефолтной строки
	require.Len(t, cfg.Locations.List, 3)
	loc, ok := cfg.Location(1)
	require.True(t, ok)
	assert.Equal(t, "Serenity HeadSpa ARCU", loc.Name)
	assert.Equal(t, "Sos. Arcu nr. 79, Iasi", loc.Address)

	_, ok = cfg.Location(99)
	assert.False(t, ok)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("AUTH_BASIC_CLIENTS", "alice:secret,bob:hunter2")
	t.Setenv("CLINIC_LOCATIONS", "7:Test Spa:Strada Test 1")

	cfg, err := NewConfig()
	require.NoError(t, err)

	// Окружение приводится к нижнему регистру
	assert.Equal(t, EnvProduction, cfg.App.Env)
	assert.True(t, cfg.IsNotLocal())
	assert.False(t, cfg.IsLocal())

	require.Len(t, cfg.Auth.BasicClients, 2)
	assert.Equal(t, "bob", cfg.Auth.BasicClients[1].Username)

	require.Len(t, cfg.Locations.List, 1)
	assert.Equal(t, 7, cfg.Locations.List[0].ID)
	assert.Equal(t, "Strada Test 1", cfg.Locations.List[0].Address)
}

func TestCategoryExcluded(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	// Административная псевдокатегория исключена всегда
	assert.True(t, cfg.CategoryExcluded("ADMINISTRATIV"))
	assert.True(t, cfg.CategoryExcluded("administrativ"))

	// Исключенные категории сравниваются нестрого
	assert.True(t, cfg.CategoryExcluded("DRENAJ (PRESOTERAPIE & TERMOTERAPIE)"))
	assert.True(t, cfg.CategoryExcluded("drenaj presoterapie termoterapie"))

	assert.False(t, cfg.CategoryExcluded("HEAD SPA"))
}

func TestClinicLocation_FallsBackToUTC(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Not/AZone")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.ClinicLocation().String())
}
