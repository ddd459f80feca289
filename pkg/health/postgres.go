package health

import "context"

// Pinger is implemented by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewPostgresChecker(db Pinger) Checker {
	return NewCheckFunc("postgres", db.Ping)
}
