package kvjson

import (
	"errors"
	"fmt"
)

// ErrDuplicateKey is wrapped by the ParseError returned when two entries of
// a document compute the same key.
var ErrDuplicateKey = errors.New("duplicate string key")

const (
	msgInvalidStructure = "Invalid structure"
	msgNotObject        = "Source file must be a JSON object"
)

// ErrorKind classifies a ParseError.
type ErrorKind int

const (
	// KindSyntax means the document is not well-formed JSON.
	KindSyntax ErrorKind = iota + 1
	// KindStructure means the top-level value is not an object or array, or
	// not an object for CHROME_V3.
	KindStructure
	// KindDuplicateKey means two entries share the same computed key.
	KindDuplicateKey
	// KindPlural means a plural block is malformed or uses unknown rules.
	KindPlural
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindStructure:
		return "structure"
	case KindDuplicateKey:
		return "duplicate key"
	case KindPlural:
		return "plural"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseError is returned by Parse for documents that cannot be extracted.
// Line is 1-based, or 0 when unknown.
type ParseError struct {
	Kind ErrorKind
	Key  string
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string { return e.Msg }

func (e *ParseError) Unwrap() error { return e.Err }
