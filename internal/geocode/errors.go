package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"roomshare_backend/platform/apperr"
)

// User-facing messages for the failure categories. Rate limiting and other
// upstream client errors collapse into one generic message; server errors
// get their own so the UI can tell "try again later" from "try a different
// query"; transport failures point at the connection.
const (
	MsgFetchFailed = "Failed to fetch suggestions"
	MsgUnavailable = "Location service is temporarily unavailable"
	MsgNetwork     = "Network error. Check your connection and try again."
)

// classifyStatus maps a non-2xx upstream status code to a domain error.
func classifyStatus(provider string, status int) *apperr.Error {
	op := fmt.Sprintf("geocode.%s", provider)
	switch {
	case status == http.StatusTooManyRequests:
		return apperr.RateLimited(MsgFetchFailed).WithOp(op)
	case status >= 500:
		return apperr.Unavailable(MsgUnavailable).WithOp(op)
	case status >= 400:
		return apperr.Upstream(MsgFetchFailed).WithOp(op)
	default:
		return apperr.Upstream(MsgFetchFailed).WithOp(op)
	}
}

// classifyTransport maps a transport-level error to a domain error.
// Cancellation is preserved as KindCanceled so callers can keep it silent;
// everything else, timeouts included, is a network failure.
func classifyTransport(provider string, err error) *apperr.Error {
	op := fmt.Sprintf("geocode.%s", provider)
	if errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.KindCanceled, "request canceled", err).WithOp(op)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindNetwork, MsgNetwork, err).WithOp(op)
	}
	return apperr.Wrap(apperr.KindNetwork, MsgNetwork, err).WithOp(op)
}

// IsCanceled reports whether the error represents a superseded or aborted
// request rather than a genuine failure.
func IsCanceled(err error) bool {
	return apperr.Is(err, apperr.KindCanceled) || errors.Is(err, context.Canceled)
}
