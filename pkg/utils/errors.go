package utils

import (
	"context"
	"errors"
	"net"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrHTTPStatus      = errors.New("non-2xx HTTP status")        // Wraps status code/text
	ErrRequestCreation = errors.New("failed to create HTTP request")
	ErrResponseBodyRead = errors.New("failed to read response body")
	ErrParsing         = errors.New("parsing error")     // Wraps HTML/URL parsing errors
	ErrNoListing       = errors.New("no listing nodes on page") // End-of-pages signal, not fatal
	ErrNormalization   = errors.New("record normalization failed")
	ErrMerge           = errors.New("record merge failed")
	ErrCommit          = errors.New("catalog commit failed")
	ErrDatabase        = errors.New("database error") // Wraps badger errors
	ErrUnknownSource   = errors.New("unknown source") // Configuration mistake, fatal
)

// CategorizeError maps an error to a predefined category string for logging/metrics.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrHTTPStatus):
		errMsg := err.Error()
		if strings.Contains(errMsg, " 404 ") {
			return "HTTP_404"
		}
		if strings.Contains(errMsg, " 403 ") {
			return "HTTP_403"
		}
		if strings.Contains(errMsg, " 429 ") {
			return "HTTP_429"
		}
		if strings.Contains(errMsg, " 5") {
			return "HTTP_5xx"
		}
		return "HTTP_Other"
	case errors.Is(err, ErrRequestCreation):
		return "Internal_RequestCreation"
	case errors.Is(err, ErrResponseBodyRead):
		return "Network_BodyRead"
	case errors.Is(err, ErrNoListing):
		return "Content_NoListing"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "URL") {
			return "Content_ParsingURL"
		}
		if strings.Contains(errMsg, "HTML") {
			return "Content_ParsingHTML"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrNormalization):
		return "Record_Normalization"
	case errors.Is(err, ErrMerge):
		return "Record_Merge"
	case errors.Is(err, ErrCommit):
		return "Catalog_Commit"
	case errors.Is(err, ErrDatabase):
		return "Database_Other"
	case errors.Is(err, ErrUnknownSource):
		return "Config_UnknownSource"
	}

	// Context errors
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	// Network errors without custom sentinels
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "Network_Timeout"
		}
	}
	lowerErrMsg := strings.ToLower(err.Error())
	if strings.Contains(lowerErrMsg, "timeout") || strings.Contains(lowerErrMsg, "deadline exceeded") {
		return "Network_TimeoutGeneric"
	}
	if strings.Contains(lowerErrMsg, "connection refused") {
		return "Network_ConnectionRefused"
	}
	if strings.Contains(lowerErrMsg, "no such host") {
		return "Network_DNSLookup"
	}
	if strings.Contains(lowerErrMsg, "tls") || strings.Contains(lowerErrMsg, "certificate") {
		return "Network_TLS"
	}
	if strings.Contains(lowerErrMsg, "reset by peer") {
		return "Network_ConnectionReset"
	}

	return "Unknown"
}
