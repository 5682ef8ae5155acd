package jsonrpc

import (
	"sync/atomic"

	"github.com/oklog/ulid/v2"
)

// IDGenerator produces fresh request identifiers for one session.
type IDGenerator interface {
	Next() ID
}

// Sequential returns a generator yielding 1, 2, 3, ... Two sessions fed the
// same script therefore produce identical ids, which keeps their responses
// comparable.
func Sequential() IDGenerator {
	return &sequential{}
}

type sequential struct {
	n atomic.Int64
}

func (s *sequential) Next() ID {
	return IntID(s.n.Add(1))
}

// ULID returns a generator yielding unique string ids.
func ULID() IDGenerator {
	return ulidGenerator{}
}

type ulidGenerator struct{}

func (ulidGenerator) Next() ID {
	return StringID(ulid.Make().String())
}
