// Package archive serializes containers to a single-file binary archive and
// reconstructs them. An archive path is physically touched by two
// independent store lanes: a columnar-array lane holding one record per
// array item, and a tabular lane holding one record per series or table
// item plus a sentinel record whose attributes carry the special (scalar
// and simple composite) items. Unsupported item kinds are skipped at write
// time, optionally with a warning; they never round-trip. There is no
// versioning and no schema manifest: reconstruction is purely name-driven.
//
// Writes and reads are single-pass and non-resumable. A crash mid-write
// leaves the archive in a store-defined partially-written state with no
// repair path.
package archive

import (
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/cartonlabs/carton/array"
	"github.com/cartonlabs/carton/container"
)

// forbiddenNames are sentinel attributes never fed back into the keyword
// map on read; they would collide with the container's reserved fields.
var forbiddenNames = map[string]bool{
	"default_prefix": true,
	"meta":           true,
}

// Write serializes a container's registry to the archive at path.
//
// The registry is walked once and classified: array items go to the array
// lane, series and table items to the tabular lane, special items onto the
// sentinel record, and anything else is skipped with one warning per item
// (suppressed when opts.Warn is false). ModeWrite truncates prior contents
// of the path before the array phase runs; an error during the array phase
// leaves the tabular phase unattempted. Existing records of the same name
// are overwritten unless append semantics apply (see Options.Append).
func Write(path string, c *container.Container, opts Options) error {
	opts = opts.normalized()

	var (
		arrays   []container.NamedItem
		tabulars []container.NamedItem
		specials []container.NamedItem
	)
	for _, ni := range c.Items() {
		switch ni.Item.Kind() {
		case container.KindArray:
			arrays = append(arrays, ni)
		case container.KindSeries, container.KindTable:
			tabulars = append(tabulars, ni)
		case container.KindScalar, container.KindList, container.KindDict:
			specials = append(specials, ni)
		default:
			if opts.Warn {
				opts.Logger.Warn("data object not saved (unsupported)",
					zap.String("name", ni.Name),
					zap.String("type", ni.Item.TypeName()))
			}
		}
	}

	if opts.Mode == ModeWrite {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("truncate archive %s: %w", path, err)
		}
	}

	if len(arrays) > 0 {
		if err := writeArrays(path, arrays, opts); err != nil {
			return err
		}
	}
	return writeTabular(path, tabulars, specials, opts)
}

func writeArrays(path string, arrays []container.NamedItem, opts Options) error {
	store, err := openArrayStore(path, false)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.ensure(); err != nil {
		return err
	}
	for _, ni := range arrays {
		a, _ := ni.Item.Array()
		if err := store.put(ni.Name, a, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeTabular(path string, tabulars, specials []container.NamedItem, opts Options) error {
	store, err := openTabularStore(path, false)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.ensureSentinel(); err != nil {
		return err
	}
	for _, ni := range specials {
		if err := store.putSpecial(ni.Name, ni.Item); err != nil {
			return err
		}
	}
	for _, ni := range tabulars {
		appendRows := opts.shouldAppend(ni.Name)
		switch ni.Item.Kind() {
		case container.KindSeries:
			s, _ := ni.Item.Series()
			if err := store.putSeries(ni.Name, s, appendRows); err != nil {
				return err
			}
		case container.KindTable:
			t, _ := ni.Item.Table()
			if err := store.putTable(ni.Name, t, appendRows); err != nil {
				return err
			}
		}
	}
	return nil
}

// Read reconstructs a container from the archive at path.
//
// The tabular lane is read first: sentinel attributes seed the keyword map
// (except a small denylist of forbidden names), then named tabular records
// are applied over them. The array lane is read second and contributes only
// names not already present; on a name collision the tabular or special
// value wins and the array value is dropped. The keyword map is forwarded
// to the container constructor. No compatibility validation is performed.
func Read(path string, opts Options) (*container.Container, error) {
	opts = opts.normalized()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	kwargs := make(map[string]container.Item)
	if err := readTabular(path, kwargs); err != nil {
		return nil, err
	}
	if err := readArrays(path, kwargs); err != nil {
		return nil, err
	}
	c, err := container.FromKeywords(kwargs)
	if err != nil {
		return nil, fmt.Errorf("reconstruct container: %w", err)
	}
	return c, nil
}

func readTabular(path string, kwargs map[string]container.Item) error {
	store, err := openTabularStore(path, true)
	if err != nil {
		return err
	}
	defer store.Close()

	ok, err := store.hasSentinel()
	if err != nil {
		return err
	}
	if ok {
		specials, err := store.specials()
		if err != nil {
			return err
		}
		for name, it := range specials {
			if forbiddenNames[name] {
				continue
			}
			kwargs[name] = it
		}
	}

	names, err := store.recordNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		it, err := store.readRecord(name)
		if err != nil {
			return err
		}
		kwargs[name] = it
	}
	return nil
}

func readArrays(path string, kwargs map[string]container.Item) error {
	store, err := openArrayStore(path, true)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.walk(func(name string, a *array.Array) error {
		if _, taken := kwargs[name]; !taken {
			kwargs[name] = container.ArrayOf(a)
		}
		return nil
	})
}
