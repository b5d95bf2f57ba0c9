// Package wserr defines the error taxonomy shared across WorkSentry's
// core components. Every kind is a sentinel checkable with errors.Is;
// the concrete Error additionally carries a wrapped cause for %w chains.
package wserr

import "errors"

// Kind classifies an error by how the caller should react to it.
type Kind string

const (
	// KindConfig marks a malformed or missing configuration file.
	// Recovered by writing a default document.
	KindConfig Kind = "config_error"

	// KindIndexUnavailable marks the index directory being locked,
	// corrupt, or unwritable. Fatal for the session.
	KindIndexUnavailable Kind = "index_unavailable"

	// KindIndexTransient marks a single upsert/commit failure (disk
	// full, transient I/O). The offending batch is dropped; the writer
	// continues.
	KindIndexTransient Kind = "index_transient"

	// KindSourceRead marks a file or browser artifact that could not be
	// read (permission denied, locked, decode failure). That item is
	// skipped; it never fails an entire bulk pass.
	KindSourceRead Kind = "source_read"

	// KindQueryInvalid marks a query that could not be parsed.
	KindQueryInvalid Kind = "query_invalid"
)

// Error is a Kind-tagged error with an optional wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + string(e.Kind)
	}
	return e.Op + ": " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, wserr.KindX) style checks by comparing Kind
// against a sentinel wrapped in an *Error with a nil cause.
func (e *Error) Is(target error) bool {
	var k *Error
	if errors.As(target, &k) {
		return e.Kind == k.Kind
	}
	return false
}

// New builds an *Error for kind, tagging it with the operation name.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// sentinel constructs a bare *Error usable as an errors.Is target.
func sentinel(kind Kind) *Error { return &Error{Kind: kind} }

var (
	ErrConfig           = sentinel(KindConfig)
	ErrIndexUnavailable = sentinel(KindIndexUnavailable)
	ErrIndexTransient   = sentinel(KindIndexTransient)
	ErrSourceRead       = sentinel(KindSourceRead)
	ErrQueryInvalid     = sentinel(KindQueryInvalid)
)

// Config wraps err as a KindConfig error.
func Config(op string, err error) *Error { return New(KindConfig, op, err) }

// IndexUnavailable wraps err as a KindIndexUnavailable error.
func IndexUnavailable(op string, err error) *Error { return New(KindIndexUnavailable, op, err) }

// IndexTransient wraps err as a KindIndexTransient error.
func IndexTransient(op string, err error) *Error { return New(KindIndexTransient, op, err) }

// SourceRead wraps err as a KindSourceRead error.
func SourceRead(op string, err error) *Error { return New(KindSourceRead, op, err) }

// QueryInvalid wraps err as a KindQueryInvalid error.
func QueryInvalid(op string, err error) *Error { return New(KindQueryInvalid, op, err) }
