package container

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotImplemented marks operations that are declared but deliberately
// unfinished, such as container concatenation and network visualization.
var ErrNotImplemented = errors.New("not implemented")

// ErrNotFound is returned when a named item is absent from the container.
var ErrNotFound = errors.New("item not found")

// KindError reports a schema violation: an item assigned under a name whose
// schema entry does not accept the item's kind.
type KindError struct {
	Name string
	Got  Kind
	Want []Kind
}

func (e *KindError) Error() string {
	want := make([]string, len(e.Want))
	for i, k := range e.Want {
		want[i] = k.String()
	}
	return fmt.Sprintf("item %q: kind %s not allowed, want one of [%s]",
		e.Name, e.Got, strings.Join(want, ", "))
}
