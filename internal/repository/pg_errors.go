package repository

import (
	"errors"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidText         = "22P02"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation reports whether err is a duplicate key error.
func IsUniqueViolation(err error) bool { return pqCode(err) == pqUniqueViolation }

// IsForeignKeyViolation reports whether err is a foreign key error.
func IsForeignKeyViolation(err error) bool { return pqCode(err) == pqForeignKeyViolation }

// IsInvalidText reports whether Postgres rejected a malformed literal, such as a bad UUID.
func IsInvalidText(err error) bool { return pqCode(err) == pqInvalidText }

// ConstraintName returns the violated constraint, if any.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
