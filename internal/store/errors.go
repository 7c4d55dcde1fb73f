package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrNotInitialized is returned by every collection operation that runs
// before Initialize.
var ErrNotInitialized = errors.New("store is not initialized")

// ErrNoSession is returned when nobody is logged in.
var ErrNoSession = errors.New("no active session")

// ErrDuplicateID is returned when a record is created with an id that is
// already taken.
var ErrDuplicateID = errors.New("duplicate id")
