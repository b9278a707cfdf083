package testutils

import (
	"context"
	"os"

	pgxsession "github.com/krew-solutions/ascetic-dsl-go/asceticdsl/session/pgx"
)

// NewPgSessionPool connects to the database described by the DB_* environment
// variables.
func NewPgSessionPool() (*pgxsession.SessionPool, error) {
	return pgxsession.Connect(context.Background(), ConnString())
}

func ConnString() string {
	var dbUsername string = getEnv("DB_USERNAME", "devel")
	var dbPassword string = getEnv("DB_PASSWORD", "devel")
	var dbHost string = getEnv("DB_HOST", "localhost")
	var dbPort string = getEnv("DB_PORT", "5432")
	var dbBasename string = getEnv("DB_DATABASE", "devel_criteria")

	return "postgres://" + dbUsername + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbBasename
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}
