package inspector

import "github.com/inspectortrace/inspector/internal/errs"

// Re-exported sentinel errors, so callers can errors.Is(err,
// inspector.ErrFull) regardless of which internal package actually
// returned it, per spec.md §7.
var (
	ErrFull           = errs.Full
	ErrEmpty          = errs.Empty
	ErrOutOfOrder     = errs.OutOfOrder
	ErrClosed         = errs.Closed
	ErrTypeMismatch   = errs.TypeMismatch
	ErrSystem         = errs.System
	ErrConfigLocked   = errs.ConfigLocked
	ErrCounterArgType = errs.CounterArgType
)
