package datasets

import "fmt"

import "github.com/pkg/errors"

// ErrDecode is matched by every DecodeError
var ErrDecode = errors.New("decode error")

// DecodeError reports a malformed input row. Field is -1 when the problem
// concerns the whole row.
type DecodeError struct {
	Row    int
	Field  int
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode error: row %d", e.Row)
	if e.Field >= 0 {
		msg += fmt.Sprintf(" field %d", e.Field)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is lets errors.Is(err, ErrDecode) match any DecodeError
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
