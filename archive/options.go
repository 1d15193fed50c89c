package archive

import (
	"slices"

	"go.uber.org/zap"
)

// Open modes for the tabular store. ModeWrite truncates prior contents of
// the path; ModeAppend keeps them.
const (
	ModeWrite  = "w"
	ModeAppend = "a"
)

// Options configures archive writes and reads. Each field is an
// independent effect; the zero value of a field means "default" except for
// Warn, so build from DefaultOptions.
type Options struct {
	// Mode is the pass-through open mode for the stores: ModeWrite or
	// ModeAppend.
	Mode string

	// Append lists item names written with append semantics instead of
	// drop-and-rewrite. AppendAll applies append semantics to every
	// tabular item. List membership is checked first, then the global
	// flag; partial matches are not honored.
	Append    []string
	AppendAll bool

	// Sparse is the minimum density threshold for sparse structures.
	// Accepted for compatibility; no write path currently enforces it.
	Sparse float64

	// CompLevel and CompLib select the compression applied to array
	// records. An empty CompLib disables compression.
	CompLevel int
	CompLib   string

	// Checksum records an xxhash64 of each array record and verifies it
	// on read.
	Checksum bool

	// Warn surfaces one warning per unsupported item skipped at write
	// time. Warnings go to Logger, never to an error return.
	Warn bool

	// Logger receives warnings; nil means no logging.
	Logger *zap.Logger
}

// DefaultOptions returns the option defaults: append mode, warnings on, no
// compression.
func DefaultOptions() Options {
	return Options{Mode: ModeAppend, Sparse: 0.95, Warn: true}
}

func (o Options) normalized() Options {
	if o.Mode == "" {
		o.Mode = ModeAppend
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func (o Options) shouldAppend(name string) bool {
	if slices.Contains(o.Append, name) {
		return true
	}
	return o.AppendAll
}
