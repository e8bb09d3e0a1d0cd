package cmn

import "errors"

// Kind is the closed set of error kinds the core distinguishes, per the
// error handling design: Kind drives whether a failure triggers a Holder
// reinit, an alien fallback, or is surfaced to the caller as-is.
type Kind int

const (
	// KindTimeout: an I/O deadline was exceeded.
	KindTimeout Kind = iota
	// KindVDiskNotFound: a placement lookup found no such vdisk.
	KindVDiskNotFound
	// KindDuplicateKey: the key is already present in the target holder.
	// Never triggers alien fallback or reinit.
	KindDuplicateKey
	// KindKeyNotFound: a read missed in every holder of the group.
	// Never triggers reinit.
	KindKeyNotFound
	// KindNotReady: the holder has not completed prepare() yet. Masked by
	// Group's retry loop; never triggers reinit.
	KindNotReady
	// KindStorage: the underlying append-log failed. Triggers reinit (read
	// or write context) and alien fallback (write context).
	KindStorage
	// KindFailed: a general transient failure. Triggers reinit and/or
	// alien fallback.
	KindFailed
	// KindInternal: a logic violation, e.g. neither a local nor an alien
	// target could be resolved.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "Timeout"
	case KindVDiskNotFound:
		return "VDiskNotFound"
	case KindDuplicateKey:
		return "DuplicateKey"
	case KindKeyNotFound:
		return "KeyNotFound"
	case KindNotReady:
		return "NotReady"
	case KindStorage:
		return "Storage"
	case KindFailed:
		return "Failed"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the core's single error type; callers distinguish outcomes by
// inspecting Kind rather than by type-switching on distinct error types.
type Error struct {
	Kind Kind
	VDisk VDiskID
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.msg == "" && e.cause == nil {
		return e.Kind.String()
	}
	if e.cause != nil {
		return e.Kind.String() + ": " + e.msg + ": " + e.cause.Error()
	}
	return e.Kind.String() + ": " + e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// NewError constructs a bare Error of the given kind with a message.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

// Wrap constructs an Error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, msg: msg, cause: cause}
}

// VDiskNotFound builds the standard "no such vdisk" error.
func VDiskNotFound(id VDiskID) *Error {
	return &Error{Kind: KindVDiskNotFound, VDisk: id, msg: "vdisk not found"}
}

var (
	// ErrDuplicateKey is returned by Holder.Write when the key already
	// exists in that holder's index.
	ErrDuplicateKey = NewError(KindDuplicateKey, "key already present")
	// ErrKeyNotFound is returned by Holder.Read on a miss.
	ErrKeyNotFound = NewError(KindKeyNotFound, "key not found")
	// ErrNotReady is returned by a Holder that has not completed Prepare.
	ErrNotReady = NewError(KindNotReady, "holder not ready")
)

// KindOf extracts the Kind of err, defaulting to KindInternal for errors
// that did not originate from this package (e.g. raw I/O errors that a
// caller forgot to classify).
func KindOf(err error) Kind {
	if err == nil {
		return -1
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// NeedsRestart reports whether err should trigger a holder reinit in a
// write context: every kind except DuplicateKey and NotReady.
func NeedsRestart(err error) bool {
	switch KindOf(err) {
	case KindDuplicateKey, KindNotReady:
		return false
	default:
		return err != nil
	}
}

// NeedsReadRestart reports whether err should trigger a holder reinit in a
// read context: every kind except KeyNotFound and NotReady.
func NeedsReadRestart(err error) bool {
	switch KindOf(err) {
	case KindKeyNotFound, KindNotReady:
		return false
	default:
		return err != nil
	}
}

// NeedsAlienFallback reports whether a local put error should fall back to
// a local-alien write: every kind except DuplicateKey.
func NeedsAlienFallback(err error) bool {
	return KindOf(err) != KindDuplicateKey && err != nil
}

// Mask applies the engine's public-boundary policy: Storage and Failed
// become Internal; DuplicateKey and KeyNotFound pass through unchanged so
// callers can distinguish client-visible outcomes.
func Mask(err error) error {
	if err == nil {
		return nil
	}
	switch KindOf(err) {
	case KindDuplicateKey, KindKeyNotFound, KindVDiskNotFound:
		return err
	case KindStorage, KindFailed:
		return NewError(KindInternal, "masked: "+err.Error())
	default:
		return err
	}
}
