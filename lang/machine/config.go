package machine

import "github.com/caarlos0/env/v6"

// Config tunes the VM's garbage collector and diagnostics. Zero-value
// Config is not valid; use NewConfig to get defaults, then override fields
// before constructing a VM, or NewConfigFromEnv to read overrides from the
// process environment.
type Config struct {
	// StressGC forces a collection before every single allocation, used to
	// shake out GC bugs (an object that should have been kept alive but
	// wasn't will fail fast instead of surviving by accident).
	StressGC bool `env:"CLOX_STRESS_GC" envDefault:"false"`
	// LogGC traces every collection's before/after heap size at debug level.
	LogGC bool `env:"CLOX_LOG_GC" envDefault:"false"`
	// HeapGrowFactor multiplies BytesAllocated to compute the next
	// collection threshold after each sweep.
	HeapGrowFactor int `env:"CLOX_GC_HEAP_GROW_FACTOR" envDefault:"2"`
	// PrintCode disassembles every compiled function to the VM logger's
	// output writer (not the program's stdout) as soon as it finishes
	// compiling, the way clox's DEBUG_PRINT_CODE build flag
	// dumps bytecode right after compilation.
	PrintCode bool `env:"CLOX_PRINT_CODE" envDefault:"false"`
	// TraceExecution logs the VM's value stack and the next instruction
	// about to be dispatched before every single opcode, the Go equivalent
	// of clox's DEBUG_TRACE_EXECUTION build flag.
	TraceExecution bool `env:"CLOX_TRACE_EXECUTION" envDefault:"false"`
}

// NewConfig returns a Config with defaults, equivalent to NewConfigFromEnv
// when no relevant environment variables are set.
func NewConfig() Config {
	return Config{HeapGrowFactor: 2}
}

// NewConfigFromEnv returns a Config populated from the process environment,
// falling back to defaults for anything unset.
func NewConfigFromEnv() (Config, error) {
	cfg := NewConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
