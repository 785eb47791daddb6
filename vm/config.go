// Package vm is the bytecode interpreter: the opcode dispatch loop, the
// outer search driver that walks a range using prefix-scan hints, and the
// scan driver that repeats search to enumerate all non-overlapping matches.
//
// It consumes an already-compiled *opcode.Program and a caller-owned
// *region.Region; it never parses or compiles a pattern itself.
package vm

import "fmt"

// Config controls interpreter behavior not already carried by the program
// itself, mirroring meta.Config/meta.DefaultConfig/meta.Config.Validate.
type Config struct {
	// StackInitSize is the backtrack stack's initial frame capacity before
	// it must grow. Default: 128.
	StackInitSize int

	// EnableStateCheck turns on the optional combinatorial-explosion
	// memoization pass.
	EnableStateCheck bool

	// StateCheckThreshold is the minimum input length the state-check
	// bitmap activates above.
	StateCheckThreshold int

	// EnableCaptureHistory turns on the capture-history tree builder,
	// independent of whether the program requests it; the
	// program's CaptureHistory bitset still controls which groups are
	// recorded.
	EnableCaptureHistory bool

	// ValidateEncoding makes Match/Search check the whole input is
	// well-formed under the program's encoding before any matching begins,
	// surfacing ErrInvalidWideCharValue when it is not.
	ValidateEncoding bool

	// LookBehindNotShortSucceeds treats a negative look-behind that would
	// need to step before the start of input as succeeding (there is
	// nothing there to match), rather than failing the match outright.
	LookBehindNotShortSucceeds bool
}

// DefaultConfig returns the interpreter defaults used when a caller does
// not override them.
func DefaultConfig() Config {
	return Config{
		StackInitSize:              128,
		EnableStateCheck:           false,
		StateCheckThreshold:        1 << 16,
		EnableCaptureHistory:       true,
		LookBehindNotShortSucceeds: true,
	}
}

// Validate checks that c's fields are in range.
func (c Config) Validate() error {
	if c.StackInitSize < 1 {
		return &ConfigError{Field: "StackInitSize", Message: "must be >= 1"}
	}
	if c.StateCheckThreshold < 0 {
		return &ConfigError{Field: "StateCheckThreshold", Message: "must be >= 0"}
	}
	return nil
}

// ConfigError reports an invalid Config field, mirroring meta.ConfigError.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("vm: invalid config: %s: %s", e.Field, e.Message)
}
