package db

import (
	"database/sql"
	"fmt"
	"maison-auth-api/config"
	"maison-auth-api/logger"
	"time"

	_ "github.com/lib/pq"
)

// ConnStr builds a lib/pq connection string from the database configuration.
func ConnStr(includePassword bool) string {
	cfg := config.AppConfig.Database
	if includePassword {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
	}
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Name, cfg.SSLMode)
}

func Connect() (*sql.DB, error) {
	logger.Log.WithField("connection", ConnStr(false)).Info("Attempting to connect to the database")

	db, err := sql.Open("postgres", ConnStr(true))
	if err != nil {
		logger.Log.WithError(err).Error("Failed to open database connection")
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err = db.Ping(); err != nil {
		logger.Log.WithError(err).Error("Failed to ping database")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Log.Info("Database connection established successfully")
	return db, nil
}
