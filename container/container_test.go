package container

import (
	"errors"
	"strings"
	"testing"

	"github.com/cartonlabs/carton/frame"
)

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.Prefix() != DefaultPrefix {
		t.Errorf("Prefix: got %q, want %q", c.Prefix(), DefaultPrefix)
	}
	if got := c.Len(); got != 2 {
		t.Errorf("Len of empty container: got %d, want 2 (reserved fields)", got)
	}
	if len(c.Items()) != 0 {
		t.Errorf("Items of empty container: got %d, want 0", len(c.Items()))
	}
}

func TestRegistry_CountsItems(t *testing.T) {
	c, err := New(
		WithItem("x", List(1, 2, 3)),
		WithItem("y", String("hello")),
		WithItem("z", Float(2.5)),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	items := c.Items()
	if len(items) != 3 {
		t.Fatalf("Items count: got %d, want 3", len(items))
	}
	// Reserved fields are not registry entries but count toward Len.
	if got := c.Len(); got != 5 {
		t.Errorf("Len: got %d, want 5", got)
	}
}

func TestRegistry_AliasesMarkedStorage(t *testing.T) {
	c, err := New(WithCompute("derived", func(c *Container) (Item, error) {
		return Int(7), nil
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// First access populates the marker-prefixed backing storage.
	it, err := c.Get("derived")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if it.Value() != int64(7) {
		t.Errorf("computed value: got %v, want 7", it.Value())
	}

	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("Items count: got %d, want 1", len(items))
	}
	if items[0].Name != "derived" {
		t.Errorf("public name: got %q, want %q", items[0].Name, "derived")
	}
}

func TestRegistry_MarkedNameWithoutCompute(t *testing.T) {
	c, _ := New(WithItem("_raw", Int(1)))
	items := c.Items()
	if items[0].Name != "_raw" {
		t.Errorf("stored name without a compute must be reported unchanged, got %q", items[0].Name)
	}
}

func TestCompute_InvokedOnce(t *testing.T) {
	calls := 0
	c, _ := New(WithCompute("once", func(c *Container) (Item, error) {
		calls++
		return Float(1.0), nil
	}))

	for i := 0; i < 3; i++ {
		if _, err := c.Get("once"); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("compute calls: got %d, want 1", calls)
	}
}

func TestCompute_ErrorPropagates(t *testing.T) {
	c, _ := New(WithCompute("bad", func(c *Container) (Item, error) {
		return Item{}, errors.New("boom")
	}))
	if _, err := c.Get("bad"); err == nil {
		t.Error("expected compute error, got nil")
	}
	if len(c.Items()) != 0 {
		t.Error("failed compute must not populate storage")
	}
}

func TestAdd_GeneratesUniquePrefixedNames(t *testing.T) {
	c, _ := New(WithPrefix("data_"))
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		name, err := c.Add(Int(int64(i)))
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if !strings.HasPrefix(name, "data_") {
			t.Errorf("generated name %q missing prefix", name)
		}
		if seen[name] {
			t.Errorf("duplicate generated name %q", name)
		}
		seen[name] = true
	}
	if len(c.Items()) != 10 {
		t.Errorf("Items count: got %d, want 10", len(c.Items()))
	}
}

func TestGet_NotFound(t *testing.T) {
	c, _ := New()
	_, err := c.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestContains(t *testing.T) {
	c, _ := New(
		WithItem("x", Int(1)),
		WithCompute("lazy", func(c *Container) (Item, error) { return Int(2), nil }),
	)
	if !c.Contains("x") {
		t.Error("Contains(x) = false")
	}
	if !c.Contains("lazy") {
		t.Error("Contains must report unset compute-backed entries")
	}
	if c.Contains("nope") {
		t.Error("Contains(nope) = true")
	}
}

func TestDelete_RemovesBackingStorage(t *testing.T) {
	c, _ := New(WithCompute("d", func(c *Container) (Item, error) { return Int(1), nil }))
	if _, err := c.Get("d"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	c.Delete("d")
	if c.Contains("d") {
		t.Error("Contains after Delete = true")
	}
	if len(c.Items()) != 0 {
		t.Error("backing storage survived Delete")
	}
	if got := c.Len(); got != 2 {
		t.Errorf("Len after Delete: got %d, want 2", got)
	}
}

func TestSet_ReplacesExisting(t *testing.T) {
	c, _ := New(WithItem("x", Int(1)))
	if err := c.Set("x", Int(2)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if len(c.Items()) != 1 {
		t.Fatalf("replacement must not grow the registry")
	}
	it, _ := c.Get("x")
	if it.Value() != int64(2) {
		t.Errorf("value after replace: got %v, want 2", it.Value())
	}
}

func TestSchema_RejectsWrongKind(t *testing.T) {
	schema := Schema{"counts": {KindArray, KindList}}
	c, err := New(WithSchema(schema))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := c.Set("counts", List(1, 2)); err != nil {
		t.Fatalf("allowed kind rejected: %v", err)
	}

	err = c.Set("counts", String("nope"))
	var kindErr *KindError
	if !errors.As(err, &kindErr) {
		t.Fatalf("expected *KindError, got %v", err)
	}
	if kindErr.Name != "counts" || kindErr.Got != KindScalar {
		t.Errorf("KindError fields: %+v", kindErr)
	}
	// Unconstrained names accept anything.
	if err := c.Set("other", String("fine")); err != nil {
		t.Errorf("unconstrained name rejected: %v", err)
	}
}

func TestEqual(t *testing.T) {
	tbl, err := frame.NewTable("a", []any{int64(0), int64(1)},
		frame.Column{Name: "v", Values: []any{1.5, 2.5}})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	mk := func() *Container {
		c, _ := New(
			WithItem("x", List(1, 2, 3)),
			WithItem("df", TableOf(tbl)),
		)
		return c
	}
	a, b := mk(), mk()
	if !a.Equal(b) {
		t.Error("identical containers not Equal")
	}

	b.Set("x", List(1, 2, 4))
	if a.Equal(b) {
		t.Error("containers with differing items reported Equal")
	}
}

func TestConcat_NotImplemented(t *testing.T) {
	a, _ := New()
	b, _ := New()
	if _, err := Concat(a, b); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}

func TestVisualize_NotImplemented(t *testing.T) {
	c, _ := New()
	if err := c.Visualize(); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}

func TestString(t *testing.T) {
	c, _ := New(WithItem("x", Int(1)))
	s := c.String()
	if !strings.HasPrefix(s, "Container(data=1, size (MiB)=") {
		t.Errorf("unexpected repr: %q", s)
	}
}
