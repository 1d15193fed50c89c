// Package container provides a storage object for heterogeneous named data
// items: scalars, lists and dicts, numeric arrays, and tabular series and
// tables. A container reports metadata about the items it holds, infers
// relationships between its tables from shared index and column labels, and
// round-trips through a binary archive (see the archive package).
package container

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// DefaultPrefix is the naming prefix applied to anonymous items.
const DefaultPrefix = "obj_"

// ComputeFunc populates an unset item on demand. It receives the container
// so derived items can read their inputs from it.
type ComputeFunc func(c *Container) (Item, error)

type entry struct {
	name string
	item Item
}

// Container holds an ordered set of named items plus two reserved fields: a
// naming prefix for anonymous items and a free-form metadata map. Item
// names are unique; the registry produced by Items is the single source of
// truth for introspection, relationship inference, and archiving.
//
// Containers are not safe for concurrent use.
type Container struct {
	prefix   string
	meta     map[string]any
	order    []string
	entries  map[string]*entry
	computes map[string]ComputeFunc
	schema   Schema
}

// Option configures a container at construction.
type Option func(*Container) error

// WithPrefix sets the naming prefix for anonymous items.
func WithPrefix(prefix string) Option {
	return func(c *Container) error {
		c.prefix = prefix
		return nil
	}
}

// WithMeta sets the container's metadata map.
func WithMeta(meta map[string]any) Option {
	return func(c *Container) error {
		c.meta = meta
		return nil
	}
}

// WithSchema installs an assignment schema. Items set before the schema
// option is applied are not re-validated, so pass it first.
func WithSchema(s Schema) Option {
	return func(c *Container) error {
		c.schema = s
		return nil
	}
}

// WithItem sets a named item.
func WithItem(name string, it Item) Option {
	return func(c *Container) error {
		return c.Set(name, it)
	}
}

// WithAnonymous adds items under generated names.
func WithAnonymous(items ...Item) Option {
	return func(c *Container) error {
		for _, it := range items {
			if _, err := c.Add(it); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithCompute registers a compute function for a named item. The entry
// stays unset until first access.
func WithCompute(name string, fn ComputeFunc) Option {
	return func(c *Container) error {
		c.RegisterCompute(name, fn)
		return nil
	}
}

// New builds a container.
func New(opts ...Option) (*Container, error) {
	c := &Container{
		prefix:   DefaultPrefix,
		entries:  make(map[string]*entry),
		computes: make(map[string]ComputeFunc),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// FromKeywords builds a container from a keyword map, the reconstruction
// path used when reading an archive. Map iteration order is not stable, so
// names are applied sorted.
func FromKeywords(kw map[string]Item, opts ...Option) (*Container, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(kw))
	for name := range kw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.Set(name, kw[name]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Prefix returns the naming prefix for anonymous items.
func (c *Container) Prefix() string { return c.prefix }

// Meta returns the container's metadata map.
func (c *Container) Meta() map[string]any { return c.meta }

// SetMeta replaces the container's metadata map.
func (c *Container) SetMeta(meta map[string]any) { c.meta = meta }

// Set attaches an item under the given name, replacing any existing item of
// that name. The assignment is validated against the schema when one is
// installed.
func (c *Container) Set(name string, it Item) error {
	if name == "" {
		return fmt.Errorf("item name must not be empty")
	}
	if err := c.schema.Validate(publicName(c, name), it); err != nil {
		return err
	}
	if e, ok := c.entries[name]; ok {
		e.item = it
		return nil
	}
	c.entries[name] = &entry{name: name, item: it}
	c.order = append(c.order, name)
	return nil
}

// Add attaches an item under a generated name, combining the prefix with a
// random unique suffix, retried until collision-free. The generated name is
// returned.
func (c *Container) Add(it Item) (string, error) {
	for {
		name := c.prefix + strings.ReplaceAll(uuid.New().String(), "-", "")
		if c.Contains(name) {
			continue
		}
		if err := c.Set(name, it); err != nil {
			return "", err
		}
		return name, nil
	}
}

// RegisterCompute attaches a compute function under a public name. Access
// through Get populates the entry on demand; the computed value lands in
// marker-prefixed storage, which the registry reports under the public name.
func (c *Container) RegisterCompute(name string, fn ComputeFunc) {
	c.computes[name] = fn
}

// Get returns the named item. Marker-prefixed storage backing a registered
// compute function is resolved through its public name, and an unset
// compute-backed entry is populated on first access.
func (c *Container) Get(name string) (Item, error) {
	if e, ok := c.entries[name]; ok {
		return e.item, nil
	}
	if fn, ok := c.computes[name]; ok {
		stored := "_" + name
		if e, ok := c.entries[stored]; ok {
			return e.item, nil
		}
		it, err := fn(c)
		if err != nil {
			return Item{}, fmt.Errorf("compute %q: %w", name, err)
		}
		if err := c.Set(stored, it); err != nil {
			return Item{}, err
		}
		return it, nil
	}
	return Item{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Contains reports attribute presence: a set entry, or a registered compute
// function whether or not its value has been populated.
func (c *Container) Contains(name string) bool {
	if _, ok := c.entries[name]; ok {
		return true
	}
	if _, ok := c.computes[name]; ok {
		return true
	}
	return false
}

// Delete removes the named item. For compute-backed names the registration
// and the marker-prefixed backing storage are removed as well.
func (c *Container) Delete(name string) {
	c.remove(name)
	if _, ok := c.computes[name]; ok {
		delete(c.computes, name)
		c.remove("_" + name)
	}
}

func (c *Container) remove(name string) {
	if _, ok := c.entries[name]; !ok {
		return
	}
	delete(c.entries, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Len counts all attributes of the container, including the two reserved
// bookkeeping fields (prefix and metadata). It is not the item count.
func (c *Container) Len() int { return len(c.entries) + 2 }

// NamedItem is one registry element: a public item name and its value.
type NamedItem struct {
	Name string
	Item Item
}

// Items returns the registry: one (public name, item) pair per attached
// item, in insertion order. Storage names carrying the internal "_" marker
// are reported under their unmarked public name whenever a compute function
// of that name is registered; callers needing determinism must sort.
func (c *Container) Items() []NamedItem {
	out := make([]NamedItem, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, NamedItem{Name: publicName(c, name), Item: c.entries[name].item})
	}
	return out
}

// Names returns the public names of all attached items, in insertion order.
func (c *Container) Names() []string {
	names := make([]string, 0, len(c.order))
	for _, name := range c.order {
		names = append(names, publicName(c, name))
	}
	return names
}

func publicName(c *Container, stored string) string {
	if trimmed, ok := strings.CutPrefix(stored, "_"); ok {
		if _, registered := c.computes[trimmed]; registered {
			return trimmed
		}
	}
	return stored
}

// Equal compares two containers name-by-name over their registries, using
// the item equality rules (element-wise for array-like kinds).
func (c *Container) Equal(other *Container) bool {
	if other == nil {
		return false
	}
	for _, ni := range c.Items() {
		if !other.Contains(ni.Name) {
			return false
		}
		theirs, err := other.Get(ni.Name)
		if err != nil || !ni.Item.Equal(theirs) {
			return false
		}
	}
	return true
}

// String reports the item count and total estimated size.
func (c *Container) String() string {
	return fmt.Sprintf("Container(data=%d, size (MiB)=%.3f)", len(c.entries), c.MemoryUsage())
}

// Concat merges containers' data into a new container object.
//
// Not implemented.
func Concat(containers ...*Container) (*Container, error) {
	return nil, fmt.Errorf("concatenate containers: %w", ErrNotImplemented)
}
