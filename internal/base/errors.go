// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "github.com/cockroachdb/errors"

// Sentinel errors for the error kinds of the error-handling design:
// AlreadyExists and NotFound are returned to callers for recoverable
// conditions; PersistenceError wraps whatever the collaborator returned.
var (
	// ErrFamilyAlreadyExists is returned by CreateFamily for a name already
	// registered on the table.
	ErrFamilyAlreadyExists = errors.New("widedb: family already exists")
	// ErrFamilyNotFound is returned by GetFamily for an unregistered name.
	ErrFamilyNotFound = errors.New("widedb: family not found")
	// ErrPersistence marks every error produced by WrapPersistenceError.
	ErrPersistence = errors.New("widedb: persistence error")
)

// WrapPersistenceError tags err (from a PersistenceLayer collaborator) as a
// PersistenceError so callers can distinguish storage faults from engine
// bugs with errors.Is(err, ErrPersistence), while retaining the original
// cause in the chain.
func WrapPersistenceError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrPersistence)
}

// InvariantViolation panics with a formatted message. The MVCC sequencer and
// other core state machines call this for conditions that indicate a caller
// bug (double-complete, missing begin, desynchronized queue head) rather
// than an environmental fault; per §7 these are not recoverable and abort
// the process.
func InvariantViolation(format string, args ...interface{}) {
	panic(errors.Newf(format, args...))
}
