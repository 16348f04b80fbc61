package datastore

import (
	"github.com/jkoskela/vocalis/internal/errors"
)

// newDatabaseError wraps a GORM error with datastore metadata.
func newDatabaseError(err error, operation, recordID string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("db_operation", operation).
		Context("record_id", recordID).
		Build()
}

// lookupError distinguishes not-found from other read failures.
func lookupError(err error, operation, recordID string) error {
	category := errors.CategoryDatabase
	if IsNotFound(err) {
		category = errors.CategoryNotFound
	}
	return errors.New(err).
		Component("datastore").
		Category(category).
		Context("db_operation", operation).
		Context("record_id", recordID).
		Build()
}

// newStateError signals a session status step outside the allowed progression.
func newStateError(from, to, sessionID string) error {
	return errors.Newf("invalid session status transition %s -> %s", from, to).
		Component("datastore").
		Category(errors.CategoryState).
		Context("session_id", sessionID).
		Build()
}

// newConflictError signals a write that would violate a write-once rule.
func newConflictError(msg, recordID string) error {
	return errors.Newf("%s", msg).
		Component("datastore").
		Category(errors.CategoryConflict).
		Context("record_id", recordID).
		Build()
}
