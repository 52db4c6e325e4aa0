package health

import "context"

// DBPinger checks the key-value store backing rules and products.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Checker checks one optional dependency.
type Checker interface {
	HealthCheck(ctx context.Context) error
}
