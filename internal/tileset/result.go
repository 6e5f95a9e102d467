package tileset

import "encoding/json"

// Result is the per-item outcome of a batch lookup: either a value or an
// error message. A failed item never aborts its batch.
type Result[T any] struct {
	Value T
	Err   string
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps a per-item error message.
func Fail[T any](msg string) Result[T] {
	return Result[T]{Err: msg}
}

// Failed reports whether the item carries an error.
func (r Result[T]) Failed() bool {
	return r.Err != ""
}

// MarshalJSON encodes the value itself, or {"error": msg} for failures.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Err})
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON is the inverse of MarshalJSON; an object with an "error"
// string member decodes as a failure.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var probe struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && probe.Error != nil {
		*r = Fail[T](*probe.Error)
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Ok(v)
	return nil
}
