package config_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dealflow-crm/pkg/config"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "dealflow-crm", cfg.App.Name)
	assert.Equal(t, config.DriverPostgres, cfg.Store.Driver)
	assert.False(t, cfg.Store.AutoSchema)
	assert.Equal(t, "dealflow_crm", cfg.DB.DBName)
	assert.EqualValues(t, 25, cfg.DB.MaxConns)
	assert.EqualValues(t, 2, cfg.DB.MinConns)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, "postgres://postgres:@localhost:5432/dealflow_crm?sslmode=disable", cfg.DB.ConnectionString())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("STORE_DRIVER", "MEMORY")
	v.Set("DB_AUTO_SCHEMA", true)
	v.Set("HTTP_PORT", "9090")
	v.Set("DB_USER", "crm")
	v.Set("DB_PASSWORD", "p@ss:word")
	v.Set("BCRYPT_COST", 4)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.True(t, cfg.Store.AutoSchema)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
	assert.Contains(t, cfg.DB.DSN(), "crm:p%40ss%3Aword@")
}

func TestFromViper_DatabaseURLWins(t *testing.T) {
	v := viper.New()
	v.Set("DATABASE_URL", "postgresql://u:p@db:5432/x?sslmode=require")
	v.Set("DB_HOST", "ignored")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "postgresql://u:p@db:5432/x?sslmode=require", cfg.DB.ConnectionString())
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"driver", "STORE_DRIVER", "mongo"},
		{"puerto", "HTTP_PORT", 70000},
		{"bcrypt", "BCRYPT_COST", 3},
		{"pool", "DB_MIN_CONNS", 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := config.FromViper(v)
			assert.Error(t, err)
		})
	}
}
