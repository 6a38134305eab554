package gsql

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAuthentication indicates the server rejected the supplied credentials.
	ErrAuthentication = errors.New("gsql: authentication failed")
	// ErrLicenseExpired indicates the server license has expired. It wraps ErrAuthentication.
	ErrLicenseExpired = fmt.Errorf("%w: server license is expired", ErrAuthentication)
	// ErrLogin is returned for any other login failure reported by the server.
	ErrLogin = errors.New("gsql: login failed")
	// ErrIncompatibleClient indicates the server reported the client commit as incompatible.
	ErrIncompatibleClient = errors.New("gsql: client is not compatible with server")
	// ErrNoCompatibleVersion is returned when every known client version failed to log in.
	ErrNoCompatibleVersion = errors.New("gsql: no known client version could log in")
	// ErrProtocol marks a malformed control line in a console response.
	ErrProtocol = errors.New("gsql: malformed protocol line")
	// ErrSecretNotFound is returned when no secret exists for a graph and none was created.
	ErrSecretNotFound = errors.New("gsql: no secret for graph")
	// ErrUnexpectedOutput is returned when command output does not have the expected shape.
	ErrUnexpectedOutput = errors.New("gsql: unexpected command output")
)

// CommandError reports a non-zero return code emitted by the server for a command.
type CommandError struct {
	Code   int
	Output []string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("gsql: command failed with return code %d", e.Code)
	if len(e.Output) > 0 {
		msg += ": " + strings.Join(e.Output, "; ")
	}
	return msg
}

// RecursiveIncludeError is returned when a script includes a file that is already being loaded.
type RecursiveIncludeError struct {
	Path string
}

func (e *RecursiveIncludeError) Error() string {
	return fmt.Sprintf("gsql: recursive include of %q", e.Path)
}

// StatusError reports an unexpected HTTP status from a console endpoint.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gsql: %s returned status %d", e.Endpoint, e.StatusCode)
}
