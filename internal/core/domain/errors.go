package domain

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable error category reported to callers regardless
// of transport.
type Kind string

const (
	KindUnauthenticated   Kind = "Unauthenticated"
	KindPermissionDenied  Kind = "PermissionDenied"
	KindInvalidArgument   Kind = "InvalidArgument"
	KindNotFound          Kind = "NotFound"
	KindEmptyCart         Kind = "EmptyCart"
	KindInsufficientStock Kind = "InsufficientStock"
	KindConflict          Kind = "Conflict"
	KindStorageFailure    Kind = "StorageFailure"
)

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrStorage           = errors.New("storage failure")
)

var kinds = []struct {
	sentinel error
	kind     Kind
}{
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrPermissionDenied, KindPermissionDenied},
	{ErrInvalidArgument, KindInvalidArgument},
	{ErrNotFound, KindNotFound},
	{ErrEmptyCart, KindEmptyCart},
	{ErrInsufficientStock, KindInsufficientStock},
	{ErrConflict, KindConflict},
	{ErrStorage, KindStorageFailure},
}

// KindOf classifies err. Errors that carry no domain sentinel are storage
// failures from the caller's point of view; a nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindStorageFailure
}

// IsDomain reports whether err already carries one of the domain sentinels.
func IsDomain(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return true
		}
	}
	return false
}

// Errorf wraps sentinel with a formatted message.
func Errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// Storage marks err as a storage failure unless it is already a domain error.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// InsufficientStockError names the product that could not be fulfilled.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
