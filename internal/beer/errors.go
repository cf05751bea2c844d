package beer

import "fmt"

// NetworkError reports a failed REST call. Status is zero when the request
// never produced a response.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports a push frame that could not be decoded. It is fatal to
// the frame only.
type DecodeError struct {
	Frame []byte
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode push frame: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
