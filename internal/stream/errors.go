package stream

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedByte  = errors.New("unexpected byte")
	ErrCaptureOverflow = errors.New("capture overflow")
)

type ErrorKind int

const (
	UnexpectedByte ErrorKind = iota + 1
	CaptureOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedByte:
		return "unexpected byte"
	case CaptureOverflow:
		return "capture overflow"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ParseError stops a parse. Offset counts bytes since the last Reset.
type ParseError struct {
	Kind   ErrorKind
	State  int
	Offset int
	Byte   byte
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s 0x%02x at offset %d (state %d)", e.Kind, e.Byte, e.Offset, e.State)
}

func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrUnexpectedByte:
		return e.Kind == UnexpectedByte
	case ErrCaptureOverflow:
		return e.Kind == CaptureOverflow
	}
	return false
}
