package vsfs

import (
	"fmt"
	"syscall"
)

// DriverError is a wrapper around a system errno code, with a customizable error
// message. It is the error type the façade operations in operations.go and
// session.go return, apart from Unmount, which collects its failures into a
// *multierror.Error.
type DriverError struct {
	ErrnoCode syscall.Errno
	message   string
}

// Error implements the `error` interface.
func (e *DriverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.ErrnoCode.Error()
}

// Is lets callers use errors.Is(err, vsfs.ENOENT) and friends against a
// *DriverError.
func (e *DriverError) Is(target error) bool {
	if other, ok := target.(syscall.Errno); ok {
		return e.ErrnoCode == other
	}
	return false
}

// NewDriverError creates a new DriverError with a default message derived from
// the system's error code.
func NewDriverError(errnoCode syscall.Errno) *DriverError {
	return &DriverError{
		ErrnoCode: errnoCode,
		message:   errnoCode.Error(),
	}
}

// NewDriverErrorWithMessage creates a new DriverError from a system error code
// with a custom message appended.
func NewDriverErrorWithMessage(errnoCode syscall.Errno, message string) *DriverError {
	return &DriverError{
		ErrnoCode: errnoCode,
		message:   fmt.Sprintf("%s: %s", errnoCode.Error(), message),
	}
}

// The errno codes below cover every failure condition the façade operations
// can report. They're named here, rather than left as bare syscall.* values,
// so callers outside this package don't need to import "syscall" themselves
// to recognize them.
const (
	// EIO covers HOST_CREATE_FAILED, HOST_OPEN_FAILED, HOST_READ_FAILED,
	// HOST_WRITE_FAILED, and HOST_CLOSE_FAILED.
	EIO = syscall.EIO
	// ENOENT covers NOT_FOUND.
	ENOENT = syscall.ENOENT
	// EEXIST covers ALREADY_EXISTS.
	EEXIST = syscall.EEXIST
	// EBADF covers BAD_DESCRIPTOR.
	EBADF = syscall.EBADF
	// EMFILE covers TOO_MANY_OPEN (the per-session descriptor table is full).
	EMFILE = syscall.EMFILE
	// ENFILE covers MAX_FILES (the metadata or directory table is full).
	ENFILE = syscall.ENFILE
	// ENOSPC covers SPACE_EXHAUSTED.
	ENOSPC = syscall.ENOSPC
	// E2BIG covers IMAGE_TOO_SMALL.
	E2BIG = syscall.E2BIG
	// EINVAL covers malformed CLI/API arguments that don't fit another code.
	EINVAL = syscall.EINVAL
	// EUCLEAN covers BAD_MARKER and an Occupy of a block that is already
	// occupied.
	EUCLEAN = syscall.EUCLEAN
	// EBUSY is not returned by this package: Format and Mount each build an
	// independent Session and do not detect an image that is already mounted.
	EBUSY = syscall.EBUSY
	// ENODEV covers operations attempted before Mount/Format, i.e. NOT_MOUNTED.
	ENODEV = syscall.ENODEV
)
