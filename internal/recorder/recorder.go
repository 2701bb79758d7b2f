package recorder

import (
	"IntradayScreener/internal/model"
)

// Recorder journals scan results for later analysis. It is write-only: the
// screener never reads the journal back.
type Recorder interface {
	RecordScan(result *model.ScanResult) error
	Close() error
}

// Open picks the journal backend: PostgreSQL when postgresDSN is set, SQLite
// when sqlitePath is set, otherwise a no-op recorder.
func Open(sqlitePath, postgresDSN string) (Recorder, error) {
	switch {
	case postgresDSN != "":
		return NewPostgresRecorder(postgresDSN)
	case sqlitePath != "":
		return NewSQLiteRecorder(sqlitePath)
	default:
		return NewNoopRecorder(), nil
	}
}
