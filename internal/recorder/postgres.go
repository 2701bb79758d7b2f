package recorder

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// NewPostgresRecorder connects to PostgreSQL and runs migrations.
func NewPostgresRecorder(dsn string) (*SQLRecorder, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &SQLRecorder{
		db:      db,
		dialect: postgresDialect,
		logger:  log.With().Str("component", "recorder").Str("driver", "postgres").Logger(),
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Msg("PostgreSQL recorder opened")
	return r, nil
}
