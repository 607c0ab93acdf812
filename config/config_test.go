package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
http:
  address: ":9090"
database:
  host: "db"
  port: 5432
  user: "app"
  password: "secret"
  name: "tickets"
  ssl_mode: "disable"
kafka:
  brokers:
    - "kafka:9092"
  booking_topic: "bookings"
catalog:
  cache_ttl_seconds: 60
`
	assert.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)

	assert.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=tickets sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 60, cfg.Catalog.CacheTTLSeconds)

	// Defaults kick in for unset paging limits.
	assert.Equal(t, 20, cfg.Catalog.DefaultPageSize)
	assert.Equal(t, 100, cfg.Catalog.MaxPageSize)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("does-not-exist.yaml")
	assert.Error(t, err)
}
