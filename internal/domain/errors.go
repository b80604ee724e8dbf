package domain

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when the access policy denies an operation.
var ErrForbidden = errors.New("access denied")

// NotFoundError means an id did not resolve in storage.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s [%s] not found", e.Kind, e.ID)
}

func NewCustomerNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "customer", ID: id}
}

func NewBookNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "book", ID: id}
}

func NewPurchaseNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "purchase", ID: id}
}

// BadRequestError means a structurally valid request violates a domain rule,
// e.g. purchasing a book that is already sold.
type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string {
	return e.Reason
}

// ValidationError means an input value fails a domain constraint before any
// mutation happens, e.g. a duplicate email.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
