package models

// SkipReason explains why an optional enhancement produced no value
type SkipReason string

const (
	ReasonNone          SkipReason = ""
	ReasonDisabled      SkipReason = "disabled"
	ReasonNoAPIKey      SkipReason = "no_api_key"
	ReasonRequestFailed SkipReason = "request_failed"
	ReasonUnparseable   SkipReason = "unparseable"
	ReasonEmpty         SkipReason = "empty"
	ReasonUnchanged     SkipReason = "unchanged"
	ReasonConvertFailed SkipReason = "convert_failed"
)

// Outcome carries either a value or the reason it is absent.
// Enhancement steps return it instead of an error so callers fall back.
type Outcome[T any] struct {
	Value  T
	Reason SkipReason
	Err    error
}

// OK reports whether the outcome carries a value
func (o Outcome[T]) OK() bool {
	return o.Reason == ReasonNone
}

// Found wraps a value
func Found[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Absent records why there is no value. err may be nil.
func Absent[T any](reason SkipReason, err error) Outcome[T] {
	return Outcome[T]{Reason: reason, Err: err}
}

// Or returns the value, or fallback when absent
func (o Outcome[T]) Or(fallback T) T {
	if o.OK() {
		return o.Value
	}
	return fallback
}
