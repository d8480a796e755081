// Package repository implements the persistence layer over MySQL. Sentinel
// errors defined here let the service and handler layers distinguish failure
// scenarios without inspecting driver errors.
package repository

import "errors"

var (
	// ErrUserNotFound is returned when no user row matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when an insert or update would duplicate
	// an email owned by a different row. The unique key on users.email is
	// the real guard; application-level pre-checks are best effort only.
	ErrEmailExists = errors.New("email already exists")

	// ErrNotFound is returned for absent testimonials and projects.
	ErrNotFound = errors.New("record not found")

	// ErrSlugExists is returned when a project insert or update would
	// duplicate a slug.
	ErrSlugExists = errors.New("slug already exists")
)
