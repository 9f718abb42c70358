package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", DBName: "sales", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=sales sslmode=require", cfg.DSN())
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_UPLOAD_DIR", dir+"/uploads")
	t.Setenv("APP_DATA_DIR", dir+"/output")
	t.Setenv("FORECAST_MAX_HORIZON_DAYS", "90")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 90, cfg.Forecast.MaxHorizonDays)
	assert.Equal(t, 200, cfg.Model.Trees)
	assert.Equal(t, int64(42), cfg.Model.Seed)
	assert.Equal(t, 5, cfg.Model.CVFolds)
	assert.DirExists(t, dir+"/uploads")
	assert.False(t, cfg.Drive.Enabled())
}
