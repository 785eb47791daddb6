package vm

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsBadStackInitSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StackInitSize = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("Validate() = nil, want an error for StackInitSize=0")
	}
	cerr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("Validate() error type = %T, want *ConfigError", err)
	}
	if cerr.Field != "StackInitSize" {
		t.Errorf("ConfigError.Field = %q, want %q", cerr.Field, "StackInitSize")
	}
}

func TestValidateRejectsNegativeStateCheckThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StateCheckThreshold = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() = nil, want an error for negative StateCheckThreshold")
	}
}

func TestOpcodeErrorUnwraps(t *testing.T) {
	inner := ErrUndefinedBytecode
	wrapped := &OpcodeError{PC: 12, Err: inner}
	if got := wrapped.Unwrap(); got != inner {
		t.Fatalf("Unwrap() = %v, want %v", got, inner)
	}
}
