package deviceapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (reset, unreachable, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeHTTP indicates the device answered with a status other than 200 or 304
	ErrTypeHTTP
	// ErrTypeParse indicates the response body was not the expected JSON shape
	ErrTypeParse
	// ErrTypeValidation indicates input rejected locally, before any request
	ErrTypeValidation
	// ErrTypeTimeout indicates the request exceeded its deadline
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the device refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeServer indicates the device answered success:false
	ErrTypeServer
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
	NetworkErrorConnectionReset
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeServer:
		return "Device Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error that occurred while talking to the device
type DeviceError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code (if applicable)
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
	Endpoint       string              // Request path (for context)
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a DeviceError
// with the most specific type available.
func ClassifyNetworkError(err error, endpoint string) *DeviceError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &DeviceError{
			Type:           ErrTypeTimeout,
			Message:        "request timed out",
			Err:            err,
			NetworkSubtype: NetworkErrorTimeout,
			Endpoint:       endpoint,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &DeviceError{
			Type:           ErrTypeDNS,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			NetworkSubtype: NetworkErrorDNS,
			Endpoint:       endpoint,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &DeviceError{
				Type:           ErrTypeConnectionRefused,
				Message:        "device refused connection",
				Err:            err,
				NetworkSubtype: NetworkErrorConnectionRefused,
				Endpoint:       endpoint,
			}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &DeviceError{
				Type:           ErrTypeNetwork,
				Message:        "host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
				Endpoint:       endpoint,
			}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &DeviceError{
				Type:           ErrTypeNetwork,
				Message:        "network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				Endpoint:       endpoint,
			}
		case errors.Is(opErr.Err, syscall.ECONNRESET):
			return &DeviceError{
				Type:           ErrTypeNetwork,
				Message:        "connection reset by device",
				Err:            err,
				NetworkSubtype: NetworkErrorConnectionReset,
				Endpoint:       endpoint,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return ClassifyNetworkError(urlErr.Err, endpoint)
	}

	return &DeviceError{
		Type:           ErrTypeNetwork,
		Message:        "network error occurred",
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
		Endpoint:       endpoint,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(endpoint, message string, err error) *DeviceError {
	classified := ClassifyNetworkError(err, endpoint)
	if classified == nil {
		return &DeviceError{Type: ErrTypeNetwork, Message: message, Endpoint: endpoint}
	}
	if classified.Type != ErrTypeTimeout {
		classified.Message = message
	}
	return classified
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(endpoint string, statusCode int) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		StatusCode: statusCode,
		Endpoint:   endpoint,
	}
}

// NewParseError creates a parsing error
func NewParseError(endpoint string, err error) *DeviceError {
	return &DeviceError{
		Type:     ErrTypeParse,
		Message:  "failed to parse device response",
		Err:      err,
		Endpoint: endpoint,
	}
}

// NewServerError wraps a success:false reply. message is the device's own
// text and may be empty.
func NewServerError(endpoint, message string) *DeviceError {
	return &DeviceError{
		Type:     ErrTypeServer,
		Message:  message,
		Endpoint: endpoint,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

func errorType(err error) (ErrorType, bool) {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type, true
	}
	return ErrTypeUnknown, false
}

// IsRequestFailed reports whether err is a transport failure: no usable
// response arrived (network, timeout, refused, DNS) or the HTTP status was
// not 200/304.
func IsRequestFailed(err error) bool {
	t, ok := errorType(err)
	if !ok {
		return false
	}
	switch t {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS, ErrTypeHTTP:
		return true
	}
	return false
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS)
func IsNetworkError(err error) bool {
	t, ok := errorType(err)
	return ok && (t == ErrTypeNetwork || t == ErrTypeTimeout || t == ErrTypeConnectionRefused || t == ErrTypeDNS)
}

// IsTimeout checks if an error is a request timeout
func IsTimeout(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeTimeout
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeHTTP
}

// IsParseError checks if an error is a malformed-response error
func IsParseError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeParse
}

// IsServerError checks if an error carries a success:false reply
func IsServerError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeServer
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeValidation
}

// FailureMessage renders err as the notice shown to the operator. action is
// the lower-case verb phrase, e.g. "failed to add topic".
//
//	validation  -> the validation message itself
//	server      -> "failed to add topic: duplicate"
//	parse       -> "failed to add topic: could not parse device response"
//	everything else -> "failed to add topic: request failed, please retry"
func FailureMessage(action string, err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return fmt.Sprintf("%s: %v", action, err)
	}

	switch devErr.Type {
	case ErrTypeValidation:
		return devErr.Message
	case ErrTypeServer:
		if devErr.Message == "" {
			return action
		}
		return fmt.Sprintf("%s: %s", action, devErr.Message)
	case ErrTypeParse:
		return fmt.Sprintf("%s: could not parse device response", action)
	case ErrTypeTimeout:
		return fmt.Sprintf("%s: device did not respond in time, please retry", action)
	default:
		return fmt.Sprintf("%s: request failed, please retry", action)
	}
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) []string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return nil
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return []string{
			"Check that the modem is powered on",
			"Verify you are on the same network as the modem",
			"Try a longer --timeout",
		}
	case ErrTypeConnectionRefused:
		return []string{
			"The modem's web server may still be starting, wait a few seconds",
			"Verify the port number (default is 80)",
		}
	case ErrTypeDNS:
		return []string{
			"Use the IP address instead of the hostname",
			"Run 'modemctl scan' to find the modem on the local network",
		}
	case ErrTypeNetwork:
		switch devErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return []string{
				"Verify the modem address is correct",
				"Check that you are on the same network as the modem",
			}
		case NetworkErrorNetworkUnreachable:
			return []string{
				"Connect to the modem's WiFi access point",
				"Check your network adapter settings",
			}
		default:
			return []string{
				"Check your network connection",
				"Verify the modem is powered on",
			}
		}
	case ErrTypeHTTP:
		if devErr.StatusCode == 404 {
			return []string{"The firmware does not expose " + devErr.Endpoint + ", check the firmware version"}
		}
		return []string{"Try rebooting the modem"}
	case ErrTypeParse:
		return []string{
			"The reply did not match the expected format",
			"Check the firmware version, or rerun with --log-level debug",
		}
	}
	return nil
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return "Modem not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Modem refused connection"
	case ErrTypeDNS:
		return "Cannot resolve modem hostname"
	case ErrTypeNetwork:
		switch devErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return "Modem unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable - check WiFi connection"
		default:
			return "Network error - check connection"
		}
	case ErrTypeHTTP:
		return fmt.Sprintf("Modem error (HTTP %d)", devErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse modem response"
	case ErrTypeServer:
		if strings.TrimSpace(devErr.Message) == "" {
			return "Modem reported a failure"
		}
		return devErr.Message
	default:
		return devErr.Message
	}
}
