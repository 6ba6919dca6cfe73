package webresource

import (
	"errors"

	"github.com/albertocavalcante/go-webresource/addressing"
)

var (
	// ErrCannotParse indicates a request path that is not a resource URL.
	ErrCannotParse = addressing.ErrCannotParse

	// ErrNotFound indicates a well-formed request path naming a module,
	// resource, context or batch that does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrNoRequestState indicates a context that carries no RequestState.
	ErrNoRequestState = errors.New("no request state in context")
)
