package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cfg := Config{User: "resv", Pass: "hunter2", Host: "db", Port: "3306", Name: "reservations"}
	assert.Equal(t,
		"resv:hunter2@tcp(db:3306)/reservations?charset=utf8mb4&parseTime=true&loc=UTC",
		cfg.DSN())
}

func TestDSNWithoutPassword(t *testing.T) {
	cfg := Config{User: "resv", Host: "localhost", Port: "3307", Name: "reservations"}
	assert.Equal(t,
		"resv@tcp(localhost:3307)/reservations?charset=utf8mb4&parseTime=true&loc=UTC",
		cfg.DSN())
}

func TestWithPoolDefaults(t *testing.T) {
	got := Config{}.withPoolDefaults()
	assert.Equal(t, defaultMaxConns, got.MaxOpenConns)
	assert.Equal(t, defaultMaxConns, got.MaxIdleConns)
	assert.Equal(t, defaultConnMaxLifetime, got.ConnMaxLifetime)
}

func TestWithPoolDefaultsKeepsExplicitValues(t *testing.T) {
	got := Config{MaxOpenConns: 10, MaxIdleConns: 4, ConnMaxLifetime: time.Minute}.withPoolDefaults()
	assert.Equal(t, 10, got.MaxOpenConns)
	assert.Equal(t, 4, got.MaxIdleConns)
	assert.Equal(t, time.Minute, got.ConnMaxLifetime)
}

func TestWithPoolDefaultsCapsIdleAtOpen(t *testing.T) {
	got := Config{MaxOpenConns: 5, MaxIdleConns: 50}.withPoolDefaults()
	assert.Equal(t, 5, got.MaxIdleConns)
}
