package database

import (
	"context"
	"database/sql"
	_ "embed"

	apperrors "github.com/geosight/dashboard/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the gazetteer and aviation tables, the query log and
// the pg_trgm/PostGIS extensions they need. It is safe to run repeatedly.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return apperrors.NewInternalError("failed to create schema", err)
	}
	return nil
}
