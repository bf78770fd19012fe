package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/devcamper-api/internal/types"
)

// Postgres SQLSTATE codes the repositories care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeStringTooLong       = "22001"
	codeInvalidText         = "22P02"
)

// MapError turns driver errors into the error kinds the HTTP boundary knows.
// notFound is the message used when the row is missing.
func MapError(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return types.NewError(types.ErrNotFound, "%s", notFound)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("database error: %w", err)
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return types.NewError(types.ErrConflict, "Duplicate field value entered")
	case codeForeignKeyViolation, codeInvalidText:
		return types.NewError(types.ErrNotFound, "%s", notFound)
	case codeNotNullViolation, codeCheckViolation, codeStringTooLong:
		return types.NewValidationError(pgErr.Message)
	}
	return fmt.Errorf("database error: %w", err)
}
