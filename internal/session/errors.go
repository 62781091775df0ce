package session

import "errors"

// ErrNotFound indicates that no live session exists for the given ID.
var ErrNotFound = errors.New("session not found")

// ErrExpired indicates that the session outlived its TTL. The session is removed when this is returned.
var ErrExpired = errors.New("session expired")

// ErrForbidden indicates that the requester does not own the session.
var ErrForbidden = errors.New("session belongs to another user")

// ErrEmptyOwner indicates that a session was about to be created without an owner.
var ErrEmptyOwner = errors.New("owner must be set")
