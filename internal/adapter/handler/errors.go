package handler

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/core/domain"
)

const errorDomain = "storefront"

type ErrorResponse struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func httpStatus(kind domain.Kind) int {
	switch kind {
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindPermissionDenied:
		return http.StatusForbidden
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindEmptyCart, domain.KindInsufficientStock, domain.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func grpcCode(kind domain.Kind) codes.Code {
	switch kind {
	case domain.KindUnauthenticated:
		return codes.Unauthenticated
	case domain.KindPermissionDenied:
		return codes.PermissionDenied
	case domain.KindInvalidArgument:
		return codes.InvalidArgument
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindEmptyCart, domain.KindInsufficientStock:
		return codes.FailedPrecondition
	case domain.KindConflict:
		return codes.Aborted
	}
	return codes.Internal
}

// newErrorResponse hides the cause of storage failures from callers.
func newErrorResponse(err error) ErrorResponse {
	kind := domain.KindOf(err)
	resp := ErrorResponse{Kind: string(kind), Message: err.Error()}
	if kind == domain.KindStorageFailure {
		resp.Message = "internal error"
	}

	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		resp.Details = map[string]any{
			"product_id": stockErr.ProductID,
			"available":  stockErr.Available,
			"requested":  stockErr.Requested,
		}
	}
	return resp
}

// toStatus converts err to a gRPC status carrying the error kind in an
// ErrorInfo detail.
func toStatus(err error) error {
	resp := newErrorResponse(err)
	st := status.New(grpcCode(domain.Kind(resp.Kind)), resp.Message)

	info := &errdetails.ErrorInfo{Reason: resp.Kind, Domain: errorDomain}
	if resp.Details != nil {
		info.Metadata = make(map[string]string, len(resp.Details))
		for k, v := range resp.Details {
			info.Metadata[k] = fmt.Sprint(v)
		}
	}
	if withDetails, derr := st.WithDetails(info); derr == nil {
		st = withDetails
	}
	return st.Err()
}

// KindFromStatus extracts the error kind from a status produced by toStatus.
func KindFromStatus(err error) (domain.Kind, map[string]string, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return "", nil, false
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == errorDomain {
			return domain.Kind(info.GetReason()), info.GetMetadata(), true
		}
	}
	return "", nil, false
}
