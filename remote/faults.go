package remote

import (
	"errors"
	"io"
	"net"
	"os"

	"github.com/pkg/sftp"
)

// Fault classifies an error returned from a Client operation.
type Fault int

const (
	// FaultNone means err was nil.
	FaultNone Fault = iota

	// FaultRetriable means the operation may succeed if retried
	// after a reconnect: the transport dropped, the dial failed to
	// resolve or connect, or the operation timed out.
	FaultRetriable

	// FaultFatal means retrying will not help: authentication
	// failed, the remote object doesn't exist or is inaccessible, or
	// the error came from local I/O or a caller-supplied callback.
	FaultFatal
)

// Classify decides whether err is worth retrying after a reconnect.
// It mirrors the exception set the original durasftp client retried on
// (disconnects, DNS failures, connection-refused, socket timeouts,
// operations against a closed transport, and generic SSH protocol
// errors), widened from the narrower pair of sentinel errors the
// underlying sftp package itself exposes.
func Classify(err error) Fault {
	if err == nil {
		return FaultNone
	}

	if errors.Is(err, ErrSessionClosed) {
		return FaultFatal
	}

	if unwrapIsRetriable(err) {
		return FaultRetriable
	}

	return FaultFatal
}

func unwrapIsRetriable(err error) bool {
	if eerr, ok := err.(*os.LinkError); ok {
		err = eerr.Err
	}
	if eerr, ok := err.(*os.PathError); ok {
		err = eerr.Err
	}

	if errors.Is(err, sftp.ErrSshFxConnectionLost) || errors.Is(err, sftp.ErrSshFxNoConnection) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		// Covers connection-refused and DNS-resolution failures
		// (net.OpError wraps both syscall.ECONNREFUSED and
		// *net.DNSError).
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	return false
}

// IsNotExist reports whether err indicates a missing remote object.
func IsNotExist(err error) bool {
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	var e *sftp.StatusError
	if errors.As(err, &e) {
		return e.Code == 2 // SSH_FX_NO_SUCH_FILE
	}
	return false
}

// IsPermission reports whether err indicates the remote side denied
// access to an object.
func IsPermission(err error) bool {
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	var e *sftp.StatusError
	if errors.As(err, &e) {
		return e.Code == 3 // SSH_FX_PERMISSION_DENIED
	}
	return false
}
