package repository

import (
	"log/slog"
	"time"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/session"
)

type QueryStartedEvent struct {
	Query   string
	Params  []any
	Session session.DbSession
}

type QueryEndedEvent struct {
	Query        string
	Params       []any
	Session      session.DbSession
	ResponseTime time.Duration
	Err          error
}

// LogQueries logs every finished query at debug level, and failed ones at error
// level. The returned function stops logging.
func (r *Repository[T]) LogQueries(logger *slog.Logger) func() {
	return r.onQueryEnded.Attach(func(e QueryEndedEvent) {
		if e.Err != nil {
			logger.Error("criteria query failed", "table", r.table, "sql", e.Query, "error", e.Err)
			return
		}
		logger.Debug("criteria query", "table", r.table, "sql", e.Query, "params", len(e.Params), "elapsed", e.ResponseTime)
	})
}
