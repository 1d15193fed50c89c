// Package resource declares descriptors for the compute hardware a dataset
// was produced on. The types are inert records attached to container
// metadata; they carry no behavior.
package resource

// GPU describes a graphics processing unit.
type GPU struct {
	Name string
}

// MIC describes a many-integrated-core coprocessor.
type MIC struct {
	Name string
}

// Resource describes a single computing resource (a "node").
type Resource struct {
	Name  string
	Tasks int
	GPUs  []GPU
	MICs  []MIC
	Mem   int64 // bytes
}

// Pool is a collection of computing resources.
type Pool struct {
	Resources []Resource
}
