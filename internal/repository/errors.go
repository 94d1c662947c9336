// Package repository defines sentinel errors shared across repositories so
// that handlers can map storage failures onto HTTP responses without string
// matching.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist. Handlers
// translate it into a 404 (or, for credential lookups, a generic 401).
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update would violate the
// unique email constraint. Handlers translate it into a conflict response.
var ErrEmailExists = errors.New("email already exists")
