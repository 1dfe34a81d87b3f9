package authstate

import "errors"

var (
	// ErrManagerClosed is returned by operations invoked after Close.
	ErrManagerClosed = errors.New("manager closed")
	// ErrNoSession is returned by RefreshProfile when nobody is signed in.
	ErrNoSession = errors.New("no active session")
	// ErrNotInitialized is returned by operations that need Initialize
	// to have run first.
	ErrNotInitialized = errors.New("manager not initialized")
)
