// Package folders rebuilds a nested group hierarchy from Bitwarden's flat,
// delimiter-separated folder names and materializes it into a destination
// store.
//
// Bitwarden stores folders as a flat list where nesting is only implied by
// the display name ("Work/Servers"). A name segment only becomes its own
// level once a folder with exactly that name exists; until then the
// segments stay joined in a single node ("Work/Servers" under root).
package folders

import (
	"errors"
	"sort"
	"strings"

	"github.com/nvinuesa/bw2kp/internal/model"
)

// DefaultDelimiter separates nesting levels in Bitwarden folder names.
const DefaultDelimiter = "/"

// ErrMissingID is returned when a folder record without an identifier is
// inserted. The empty identifier is reserved for the root.
var ErrMissingID = errors.New("folder record has no id")

const rootIndex = 0

// node is one level of a folder path. Nodes live in the tree's arena and
// reference each other by index.
type node struct {
	id       string
	name     string
	parent   int
	children []int
}

// Tree is the in-memory folder hierarchy. The zero value is not usable; use
// NewTree.
type Tree struct {
	nodes     []node
	delimiter string
}

// NewTree returns a tree holding only the synthetic root. An empty delimiter
// falls back to DefaultDelimiter.
func NewTree(delimiter string) *Tree {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return &Tree{
		nodes:     []node{{parent: -1}},
		delimiter: delimiter,
	}
}

// Build sorts the folder records by name and inserts them one by one into a
// new tree.
func Build(records []model.Folder, delimiter string) (*Tree, error) {
	sorted := make([]model.Folder, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	t := NewTree(delimiter)
	for _, rec := range sorted {
		if err := t.Insert(rec); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Delimiter returns the separator the tree splits names on.
func (t *Tree) Delimiter() string {
	return t.delimiter
}

// Len returns the number of folder nodes, root excluded.
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

// Insert adds a single folder record below the root.
func (t *Tree) Insert(rec model.Folder) error {
	if rec.ID == "" {
		return ErrMissingID
	}
	t.insert(rootIndex, t.segments(rec.Name), rec.ID)
	return nil
}

// segments strips leading and trailing delimiters and splits the rest. An
// empty result still yields one (empty) segment.
func (t *Tree) segments(name string) []string {
	for t.delimiter != "" && strings.HasPrefix(name, t.delimiter) {
		name = name[len(t.delimiter):]
	}
	for t.delimiter != "" && strings.HasSuffix(name, t.delimiter) {
		name = name[:len(name)-len(t.delimiter)]
	}
	return strings.Split(name, t.delimiter)
}

func (t *Tree) insert(current int, parts []string, id string) {
	if len(parts) == 0 {
		return
	}

	head := parts[0]
	leaf := len(parts) == 1

	for _, c := range t.nodes[current].children {
		child := &t.nodes[c]
		if child.name != head {
			continue
		}
		if leaf && child.id != id {
			// Two folders share this name at this level; keep both.
			t.appendChild(current, id, head)
			return
		}
		t.insert(c, parts[1:], id)
		return
	}

	if leaf {
		t.appendChild(current, id, head)
		return
	}

	merged := make([]string, 0, len(parts)-1)
	merged = append(merged, head+t.delimiter+parts[1])
	merged = append(merged, parts[2:]...)
	t.insert(current, merged, id)
}

func (t *Tree) appendChild(parent int, id, name string) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{id: id, name: name, parent: parent})
	t.nodes[parent].children = append(t.nodes[parent].children, idx)
	return idx
}

// Folder is a read-only view of a tree node.
type Folder struct {
	// ID is the Bitwarden folder identifier.
	ID string
	// Name is the segment this node represents, possibly containing
	// delimiters when intermediate levels were never seen.
	Name string
	// ParentID is the parent folder identifier, empty below the root.
	ParentID string
	// Depth is 1 for direct children of the root.
	Depth int
}

// Walk calls fn for every folder in breadth-first order, siblings in
// insertion order. Returning false stops the walk.
func (t *Tree) Walk(fn func(f Folder) bool) {
	t.bfs(func(idx int) bool {
		n := t.nodes[idx]
		return fn(Folder{
			ID:       n.id,
			Name:     n.name,
			ParentID: t.nodes[n.parent].id,
			Depth:    t.depth(idx),
		})
	})
}

// Children returns the direct children of the folder with the given id, or
// of the root when id is empty. Duplicate-name siblings are all returned.
func (t *Tree) Children(id string) []Folder {
	parent := t.find(id)
	if parent < 0 {
		return nil
	}
	out := make([]Folder, 0, len(t.nodes[parent].children))
	for _, c := range t.nodes[parent].children {
		out = append(out, Folder{
			ID:       t.nodes[c].id,
			Name:     t.nodes[c].name,
			ParentID: id,
			Depth:    t.depth(c),
		})
	}
	return out
}

func (t *Tree) find(id string) int {
	if id == "" {
		return rootIndex
	}
	for i := 1; i < len(t.nodes); i++ {
		if t.nodes[i].id == id {
			return i
		}
	}
	return -1
}

func (t *Tree) depth(idx int) int {
	d := 0
	for idx != rootIndex {
		idx = t.nodes[idx].parent
		d++
	}
	return d
}

// bfs visits every non-root node, all of depth d before any of depth d+1.
func (t *Tree) bfs(visit func(idx int) bool) {
	queue := append([]int(nil), t.nodes[rootIndex].children...)
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		queue = append(queue, t.nodes[idx].children...)
		if !visit(idx) {
			return
		}
	}
}
