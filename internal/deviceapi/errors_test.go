package deviceapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
)

// timeoutError satisfies the net.Error timeout contract
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantType    ErrorType
		wantSubtype NetworkErrorSubtype
	}{
		{
			name:        "deadline exceeded",
			err:         &url.Error{Op: "Get", URL: "http://m", Err: context.DeadlineExceeded},
			wantType:    ErrTypeTimeout,
			wantSubtype: NetworkErrorTimeout,
		},
		{
			name:        "dial timeout",
			err:         &url.Error{Op: "Get", URL: "http://m", Err: &net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}},
			wantType:    ErrTypeTimeout,
			wantSubtype: NetworkErrorTimeout,
		},
		{
			name:        "connection refused",
			err:         &url.Error{Op: "Get", URL: "http://m", Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}},
			wantType:    ErrTypeConnectionRefused,
			wantSubtype: NetworkErrorConnectionRefused,
		},
		{
			name:        "dns",
			err:         &net.DNSError{Err: "no such host", Name: "modem.invalid", IsNotFound: true},
			wantType:    ErrTypeDNS,
			wantSubtype: NetworkErrorDNS,
		},
		{
			name:        "host unreachable",
			err:         &net.OpError{Op: "dial", Net: "tcp", Err: syscall.EHOSTUNREACH},
			wantType:    ErrTypeNetwork,
			wantSubtype: NetworkErrorHostUnreachable,
		},
		{
			name:        "network unreachable",
			err:         &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ENETUNREACH},
			wantType:    ErrTypeNetwork,
			wantSubtype: NetworkErrorNetworkUnreachable,
		},
		{
			name:        "connection reset",
			err:         &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET},
			wantType:    ErrTypeNetwork,
			wantSubtype: NetworkErrorConnectionReset,
		},
		{
			name:        "generic",
			err:         errors.New("something broke"),
			wantType:    ErrTypeNetwork,
			wantSubtype: NetworkErrorGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devErr := ClassifyNetworkError(tt.err, PathStatus)
			if devErr == nil {
				t.Fatal("ClassifyNetworkError() = nil")
			}
			if devErr.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", devErr.Type, tt.wantType)
			}
			if devErr.NetworkSubtype != tt.wantSubtype {
				t.Errorf("NetworkSubtype = %v, want %v", devErr.NetworkSubtype, tt.wantSubtype)
			}
			if devErr.Endpoint != PathStatus {
				t.Errorf("Endpoint = %s, want %s", devErr.Endpoint, PathStatus)
			}
		})
	}
}

func TestClassifyNetworkError_Nil(t *testing.T) {
	if ClassifyNetworkError(nil, "") != nil {
		t.Error("ClassifyNetworkError(nil) should return nil")
	}
}

func TestDeviceError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewParseError(PathTopics, cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the underlying cause")
	}
}

func TestPredicatesSeeWrappedErrors(t *testing.T) {
	err := fmt.Errorf("loading topics: %w", NewServerError(PathTopics, "nope"))

	if !IsServerError(err) {
		t.Error("IsServerError should see through fmt.Errorf wrapping")
	}
	if IsRequestFailed(err) {
		t.Error("server error must not be request failed")
	}
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server with message", NewServerError(PathTopicsAdd, "duplicate"), "failed to add topic: duplicate"},
		{"server without message", NewServerError(PathTopicsAdd, ""), "failed to add topic"},
		{"parse", NewParseError(PathTopicsAdd, errors.New("bad")), "failed to add topic: could not parse device response"},
		{"http", NewHTTPError(PathTopicsAdd, 500), "failed to add topic: request failed, please retry"},
		{"timeout", ClassifyNetworkError(context.DeadlineExceeded, PathTopicsAdd), "failed to add topic: device did not respond in time, please retry"},
		{"validation", NewValidationError("topic name required"), "topic name required"},
		{"plain", errors.New("x"), "failed to add topic: x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FailureMessage("failed to add topic", tt.err); got != tt.want {
				t.Errorf("FailureMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetShortErrorMessage(t *testing.T) {
	if got := GetShortErrorMessage(NewHTTPError(PathStatus, 503)); got != "Modem error (HTTP 503)" {
		t.Errorf("GetShortErrorMessage() = %q", got)
	}
	if got := GetShortErrorMessage(NewServerError(PathStatus, "")); got != "Modem reported a failure" {
		t.Errorf("GetShortErrorMessage() = %q", got)
	}
}

func TestGetTroubleshootingHint(t *testing.T) {
	if hints := GetTroubleshootingHint(NewHTTPError(PathSensors, 404)); len(hints) != 1 {
		t.Errorf("hints = %v, want one 404 hint", hints)
	}
	if hints := GetTroubleshootingHint(errors.New("x")); hints != nil {
		t.Errorf("hints = %v, want nil for non-device errors", hints)
	}
}

func TestErrorTypeString(t *testing.T) {
	if ErrTypeServer.String() != "Device Error" {
		t.Errorf("String() = %s", ErrTypeServer.String())
	}
	if ErrorType(99).String() != "ErrorType(99)" {
		t.Errorf("String() = %s", ErrorType(99).String())
	}
}
