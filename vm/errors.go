package vm

import (
	"errors"
	"fmt"

	"github.com/kurogane-re/onigo/btstack"
	"github.com/kurogane-re/onigo/opcode"
)

// Sentinel errors surfaced to callers.
// ErrMemory is never produced by the engine itself (allocation failure
// panics in Go); the only resource-limit error a match produces is
// ErrMatchStackLimitOver.
var (
	ErrMemory               = errors.New("vm: out of memory")
	ErrMatchStackLimitOver  = btstack.ErrMatchStackLimitOver
	ErrStackBug             = btstack.ErrStackBug
	ErrUndefinedBytecode    = errors.New("vm: undefined bytecode")
	ErrUnexpectedBytecode   = errors.New("vm: unexpected bytecode")
	ErrInvalidWideCharValue = errors.New("vm: invalid wide char value")
	ErrInvalidArgument      = errors.New("vm: invalid argument")
	ErrInterrupted          = errors.New("vm: interrupted")
)

// OpcodeError wraps an interpreter error with the program counter and
// opcode that produced it, mirroring nfa.CompileError/nfa.BuildError's
// "context struct with Unwrap" shape.
type OpcodeError struct {
	PC  int
	Op  opcode.Opcode
	Err error
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("vm: %v at pc=%d (%v)", e.Err, e.PC, e.Op)
}

func (e *OpcodeError) Unwrap() error { return e.Err }
