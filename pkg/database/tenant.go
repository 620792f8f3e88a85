package database

import (
	"context"

	"github.com/google/uuid"
)

// ProjectScope wraps a connection with project context for RLS policy
// evaluation: the connection has app.current_project_id set.
type ProjectScope struct {
	Conn Querier
}

// WithProject acquires a connection and sets the project context for RLS.
// The returned ProjectScope MUST be closed with defer scope.Close().
func (db *DB) WithProject(ctx context.Context, projectID uuid.UUID) (*ProjectScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(ctx, "SELECT set_config('app.current_project_id', $1, false)", projectID.String())
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &ProjectScope{Conn: &pooledConn{conn: conn}}, nil
}

// WithoutProject acquires a connection without project context. Use for
// operations that span projects (user admin, validation-context snapshots).
// The returned ProjectScope MUST be closed with defer scope.Close().
func (db *DB) WithoutProject(ctx context.Context) (*ProjectScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &ProjectScope{Conn: &pooledConn{conn: conn}}, nil
}

// Close resets project context and releases the connection to the pool.
// This MUST be called to prevent project context leaking to the next request.
func (s *ProjectScope) Close() {
	pc, ok := s.Conn.(*pooledConn)
	if !ok || pc.conn == nil {
		return
	}
	_, _ = pc.conn.Exec(context.Background(), "RESET app.current_project_id")
	pc.conn.Release()
}
