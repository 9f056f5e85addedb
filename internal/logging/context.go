package logging

import "context"

// ctxKey namespaces values this package stores on a context.Context so
// they don't collide with keys other packages set.
type ctxKey int

const (
	migrationIDKey ctxKey = iota
	connectionIDKey
)

// WithMigrationID returns a context that tags every *Context log call
// made through it with the given migration id.
func WithMigrationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, migrationIDKey, id)
}

// WithConnectionID returns a context that tags every *Context log call
// made through it with the given pool connection id.
func WithConnectionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, connectionIDKey, id)
}
