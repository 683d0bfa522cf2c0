package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("REDIS_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "shop_catalog", cfg.Database.Database)
	assert.Equal(t, 10, cfg.Upload.MaxFiles)
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "cache:6380", cfg.Redis.Addr())
}

func TestValidateProduction(t *testing.T) {
	cfg := &Config{
		Environment: "production",
		JWT:         JWTConfig{SecretKey: defaultJWTSecret, AccessTokenTTL: 1},
		Database:    DatabaseConfig{Password: "secret"},
		Admin:       AdminConfig{Password: "secret"},
	}
	assert.Error(t, cfg.Validate())

	cfg.JWT.SecretKey = "rotated"
	assert.NoError(t, cfg.Validate())

	cfg.Admin.Password = ""
	assert.Error(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Database: "shop", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable TimeZone=UTC", d.DSN())
}
