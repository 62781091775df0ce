package discord

import "errors"

// ErrEmptyToken indicates that no token was provided and no session was injected via WithSession.
var ErrEmptyToken = errors.New("token must be set or a session must be provided via WithSession")

// ErrNoAuthor indicates that the given message or interaction has no author.
var ErrNoAuthor = errors.New("message has no author")

// ErrUnsupportedInteraction indicates an interaction type the adapter does not route, e.g. autocomplete.
var ErrUnsupportedInteraction = errors.New("unsupported interaction type")

// ErrCollectTimeout indicates that no message arrived before the collection deadline.
var ErrCollectTimeout = errors.New("timed out waiting for a message")

// ErrCollectAborted indicates that the user sent the abort command while a message was awaited.
var ErrCollectAborted = errors.New("message collection aborted")

// ErrCollectorBusy indicates that a message from the same user in the same channel is already awaited.
var ErrCollectorBusy = errors.New("already waiting for a message from this user")
