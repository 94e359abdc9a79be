package database

import (
	"fmt"

	"quiz-assessment/internal/config"
	"quiz-assessment/internal/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/sijms/go-ora/v2" // Oracle driver
	"go.uber.org/zap"
)

// Supported values of db.driver.
const (
	DriverOracle = "oracle"
	DriverGodror = "godror"
	DriverMemory = "memory"
)

// DSN returns the connect string for the configured driver.
func DSN(cfg *config.Config) string {
	if cfg.DB.Driver == DriverGodror {
		return cfg.GetGodrorDSN()
	}
	return cfg.GetDSN()
}

// NewSQLXOracleDB connects with driver ("oracle" for go-ora, "godror")
// and pings the database.
func NewSQLXOracleDB(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverOracle, DriverGodror:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	// sqlx.Connect는 내부적으로 Ping까지 수행합니다.
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Oracle database: %w", err)
	}

	logger.Get().Info("Successfully connected to Oracle database", zap.String("driver", driver))
	return db, nil
}
