package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the parking POS
// service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	Timezone        *time.Location
	ShutdownTimeout time.Duration
}

// Load parses configuration values from the current process environment. A
// .env file in the working directory is folded in first when present, so a
// till can be configured without touching the service unit.
//
// Every field has a default; the only failure mode is a variable that is set
// but unparseable. The aggregation timezone decides which calendar day an exit
// is counted under, so lots away from the server's zone must set it
// explicitly.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:parking.db?_foreign_keys=on",
		Timezone:        time.Local,
		ShutdownTimeout: 10 * time.Second,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("PARKING_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "PARKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("PARKING_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if tzValue := strings.TrimSpace(os.Getenv("PARKING_TIMEZONE")); tzValue != "" {
		location, err := time.LoadLocation(tzValue)
		if err != nil {
			invalid = append(invalid, "PARKING_TIMEZONE")
		} else {
			cfg.Timezone = location
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("PARKING_SHUTDOWN_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "PARKING_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("las variables de entorno tienen valores no válidos: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
