package session

import (
	"context"
)

type SessionCallback func(Session) error

type Session interface {
	Context() context.Context
	Atomic(SessionCallback) error
}

type SessionPoolCallback func(Session) error

type SessionPool interface {
	Session(context.Context, SessionPoolCallback) error
}

// Db

// Rows is a result set whose rows can be read by column name.
type Rows interface {
	Close() error
	Err() error
	Next() bool
	Columns() []string
	Values() ([]any, error)
}

type Row interface {
	Scan(dest ...any) error
}

type DbExecutor interface {
	// Exec runs a statement and reports the number of rows it affected.
	Exec(query string, args ...any) (int64, error)
}

type DbQuerier interface {
	Query(query string, args ...any) (Rows, error)
}

type DbSingleQuerier interface {
	QueryRow(query string, args ...any) Row
}

type DbConnection interface {
	DbExecutor
	DbQuerier
	DbSingleQuerier
}

type DbSession interface {
	Session
	Connection() DbConnection
}
