package container

import (
	"fmt"
	"sort"
)

// Graph is the derived relationship graph over the container's tables.
// Nodes are table names; an edge connects two tables when one's index label
// appears among the other's column labels. Edges are advisory, for display
// only, and are never persisted.
type Graph struct {
	Nodes []string    `json:"nodes"`
	Edges [][2]string `json:"edges"`
}

// Network infers relationships between the container's table items.
//
// Tables with unique indices behave like database tables whose index is a
// primary key; a column of the same name in another table plays the role of
// a foreign key. A match is either exact or a single-digit-suffixed column
// (index "atom" matches column "atom1", not "atom10"). Nodes and edges are
// returned sorted; each unordered pair appears at most once and tables
// never form self-edges.
func (c *Container) Network() Graph {
	type tableInfo struct {
		index   string
		columns []string
	}
	tables := make(map[string]tableInfo)
	for _, ni := range c.Items() {
		if t, ok := ni.Item.Table(); ok {
			tables[ni.Name] = tableInfo{index: t.IndexName(), columns: t.Columns()}
		}
	}

	g := Graph{Nodes: make([]string, 0, len(tables))}
	for name := range tables {
		g.Nodes = append(g.Nodes, name)
	}
	sort.Strings(g.Nodes)

	for name0, t0 := range tables {
		for name1, t1 := range tables {
			if name0 == name1 {
				continue
			}
			if !(labelMatches(t0.index, t1.columns) || labelMatches(t1.index, t0.columns)) {
				continue
			}
			pair := sortedPair(name0, name1)
			// Duplicate suppression by membership scan; table counts are small.
			if !containsPair(g.Edges, pair) {
				g.Edges = append(g.Edges, pair)
			}
		}
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i][0] != g.Edges[j][0] {
			return g.Edges[i][0] < g.Edges[j][0]
		}
		return g.Edges[i][1] < g.Edges[j][1]
	})
	return g
}

// Visualize renders the relationship graph with a plotting backend.
//
// Not implemented.
func (c *Container) Visualize() error {
	return fmt.Errorf("network visualization: %w", ErrNotImplemented)
}

func labelMatches(index string, columns []string) bool {
	if index == "" {
		return false
	}
	for _, col := range columns {
		if col == index {
			return true
		}
		// Catches index "atom" against column "atom1"; not "atom10".
		if len(col) == len(index)+1 && col[:len(index)] == index &&
			col[len(col)-1] >= '0' && col[len(col)-1] <= '9' {
			return true
		}
	}
	return false
}

func sortedPair(a, b string) [2]string {
	if a < b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

func containsPair(edges [][2]string, pair [2]string) bool {
	for _, e := range edges {
		if e == pair {
			return true
		}
	}
	return false
}
