package archive_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cartonlabs/carton/archive"
	"github.com/cartonlabs/carton/array"
	"github.com/cartonlabs/carton/container"
	"github.com/cartonlabs/carton/frame"
)

type unsupported struct{ F func() }

func buildContainer(t *testing.T) *container.Container {
	t.Helper()
	arr, err := array.FromFloat64([]int{2, 2}, []float64{1.5, 2.5, 3.5, 4.5})
	require.NoError(t, err)
	tbl, err := frame.NewTable("a", []any{int64(0), int64(1), int64(2)},
		frame.Column{Name: "a1", Values: []any{"p", "q", "r"}},
		frame.Column{Name: "v", Values: []any{1.5, 2.5, 3.5}})
	require.NoError(t, err)

	c, err := container.New(
		container.WithItem("x", container.List(1, 2, 3)),
		container.WithItem("df", container.TableOf(tbl)),
		container.WithItem("arr", container.ArrayOf(arr)),
		container.WithItem("title", container.String("benzene")),
		container.WithItem("count", container.Int(42)),
		container.WithItem("energy", container.Float(-76.4)),
		container.WithItem("phase", container.Complex(complex(0.5, -1.5))),
		container.WithItem("tags", container.Dict(map[string]any{"method": "dft", "charge": 0.0})),
		container.WithItem("s", container.SeriesOf(frame.NewSeries("energy", 1.0, 2.0, 3.0))),
	)
	require.NoError(t, err)
	return c
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	orig := buildContainer(t)

	require.NoError(t, archive.Write(path, orig, archive.DefaultOptions()))

	back, err := archive.Read(path, archive.DefaultOptions())
	require.NoError(t, err)

	require.ElementsMatch(t, orig.Names(), back.Names())
	for _, ni := range orig.Items() {
		theirs, err := back.Get(ni.Name)
		require.NoError(t, err, "item %s", ni.Name)
		assert.True(t, ni.Item.Equal(theirs), "item %s differs after round trip", ni.Name)
	}
}

func TestRoundTrip_Compressed(t *testing.T) {
	for _, complib := range []string{archive.CompZlib, archive.CompGzip, archive.CompZstd, archive.CompS2} {
		t.Run(complib, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.db")
			orig := buildContainer(t)

			opts := archive.DefaultOptions()
			opts.CompLib = complib
			opts.CompLevel = 5
			opts.Checksum = true
			require.NoError(t, archive.Write(path, orig, opts))

			back, err := archive.Read(path, opts)
			require.NoError(t, err)

			arr, err := back.Get("arr")
			require.NoError(t, err)
			want, _ := orig.Get("arr")
			assert.True(t, want.Equal(arr))
		})
	}
}

func TestWrite_SkipsUnsupportedWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	core, logs := observer.New(zap.WarnLevel)

	c, err := container.New(
		container.WithItem("good", container.Int(1)),
		container.WithItem("bad", container.Opaque(unsupported{})),
	)
	require.NoError(t, err)

	opts := archive.DefaultOptions()
	opts.Logger = zap.New(core)
	require.NoError(t, archive.Write(path, c, opts))

	warnings := logs.FilterMessage("data object not saved (unsupported)").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "bad", warnings[0].ContextMap()["name"])

	back, err := archive.Read(path, archive.DefaultOptions())
	require.NoError(t, err)
	assert.False(t, back.Contains("bad"), "unsupported item must not round-trip")
	assert.True(t, back.Contains("good"))
}

func TestWrite_WarnSuppressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	core, logs := observer.New(zap.WarnLevel)

	c, err := container.New(container.WithItem("bad", container.Opaque(unsupported{})))
	require.NoError(t, err)

	opts := archive.DefaultOptions()
	opts.Warn = false
	opts.Logger = zap.New(core)
	require.NoError(t, archive.Write(path, c, opts))
	assert.Zero(t, logs.Len())
}

func TestNameCollision_TabularWins(t *testing.T) {
	// An array record and a special of the same name can only coexist when
	// the archive is written twice. On read the special value wins and the
	// array value is dropped.
	path := filepath.Join(t.TempDir(), "test.db")

	arr, err := array.FromInt64([]int{2}, []int64{1, 2})
	require.NoError(t, err)
	first, err := container.New(container.WithItem("n", container.ArrayOf(arr)))
	require.NoError(t, err)
	require.NoError(t, archive.Write(path, first, archive.DefaultOptions()))

	second, err := container.New(container.WithItem("n", container.String("scalar")))
	require.NoError(t, err)
	require.NoError(t, archive.Write(path, second, archive.DefaultOptions()))

	back, err := archive.Read(path, archive.DefaultOptions())
	require.NoError(t, err)
	it, err := back.Get("n")
	require.NoError(t, err)
	assert.Equal(t, container.KindScalar, it.Kind())
	assert.Equal(t, "scalar", it.Value())
}

func TestWrite_ModeTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := container.New(container.WithItem("old", container.Int(1)))
	require.NoError(t, err)
	require.NoError(t, archive.Write(path, first, archive.DefaultOptions()))

	second, err := container.New(container.WithItem("new", container.Int(2)))
	require.NoError(t, err)
	opts := archive.DefaultOptions()
	opts.Mode = archive.ModeWrite
	require.NoError(t, archive.Write(path, second, opts))

	back, err := archive.Read(path, archive.DefaultOptions())
	require.NoError(t, err)
	assert.False(t, back.Contains("old"), "ModeWrite must truncate prior contents")
	assert.True(t, back.Contains("new"))
}

func TestWrite_AppendSemantics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	tbl, err := frame.NewTable("id", []any{int64(0), int64(1)},
		frame.Column{Name: "v", Values: []any{1.0, 2.0}})
	require.NoError(t, err)
	c, err := container.New(container.WithItem("log", container.TableOf(tbl)))
	require.NoError(t, err)

	require.NoError(t, archive.Write(path, c, archive.DefaultOptions()))

	opts := archive.DefaultOptions()
	opts.Append = []string{"log"}
	require.NoError(t, archive.Write(path, c, opts))

	back, err := archive.Read(path, archive.DefaultOptions())
	require.NoError(t, err)
	it, err := back.Get("log")
	require.NoError(t, err)
	got, ok := it.Table()
	require.True(t, ok)
	assert.Equal(t, 4, got.NumRows(), "append must accumulate rows")

	// Overwrite semantics without the append list.
	require.NoError(t, archive.Write(path, c, archive.DefaultOptions()))
	back, err = archive.Read(path, archive.DefaultOptions())
	require.NoError(t, err)
	it, _ = back.Get("log")
	got, _ = it.Table()
	assert.Equal(t, 2, got.NumRows(), "default write must rewrite the record")
}

func TestRead_MissingArchive(t *testing.T) {
	_, err := archive.Read(filepath.Join(t.TempDir(), "absent.db"), archive.DefaultOptions())
	require.Error(t, err)
}

func TestRead_SkipsForbiddenSentinelNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	c, err := container.New(
		container.WithItem("meta", container.Dict(map[string]any{"k": "v"})),
		container.WithItem("keep", container.Int(1)),
	)
	require.NoError(t, err)
	require.NoError(t, archive.Write(path, c, archive.DefaultOptions()))

	back, err := archive.Read(path, archive.DefaultOptions())
	require.NoError(t, err)
	assert.False(t, back.Contains("meta"), "forbidden sentinel names are never reconstructed as items")
	assert.True(t, back.Contains("keep"))
}

func TestRoundTrip_ConcreteScenario(t *testing.T) {
	// x = [1,2,3], df = table(index "a", column "a1"), arr = numeric array.
	path := filepath.Join(t.TempDir(), "test.db")
	arr, err := array.FromFloat64([]int{3}, []float64{0.5, 1.5, 2.5})
	require.NoError(t, err)
	df, err := frame.NewTable("a", []any{int64(0), int64(1)},
		frame.Column{Name: "a1", Values: []any{int64(10), int64(11)}})
	require.NoError(t, err)

	c, err := container.New(
		container.WithItem("x", container.List(1, 2, 3)),
		container.WithItem("df", container.TableOf(df)),
		container.WithItem("arr", container.ArrayOf(arr)),
	)
	require.NoError(t, err)

	rows := c.Info()
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"arr", "df", "x"}, []string{rows[0].Name, rows[1].Name, rows[2].Name})

	// A second table sharing index "a" relates to df.
	other, err := frame.NewTable("a", []any{int64(0)},
		frame.Column{Name: "w", Values: []any{1.0}})
	require.NoError(t, err)
	require.NoError(t, c.Set("other", container.TableOf(other)))
	g := c.Network()
	require.Len(t, g.Edges, 1)
	assert.Equal(t, [2]string{"df", "other"}, g.Edges[0])
	c.Delete("other")

	require.NoError(t, archive.Write(path, c, archive.DefaultOptions()))
	back, err := archive.Read(path, archive.DefaultOptions())
	require.NoError(t, err)

	x, err := back.Get("x")
	require.NoError(t, err)
	want, _ := c.Get("x")
	assert.True(t, want.Equal(x), "x must read back list-equal")

	dfBack, err := back.Get("df")
	require.NoError(t, err)
	gotTable, ok := dfBack.Table()
	require.True(t, ok)
	assert.True(t, df.Equal(gotTable), "df must read back index/column-equal")
}
