package folders

import "fmt"

// CreateFunc creates a destination group named name below parent and returns
// its handle.
type CreateFunc[H any] func(parent H, name string) (H, error)

// MaterializeError reports the folder whose group could not be created.
type MaterializeError struct {
	ID   string
	Name string
	Err  error
}

func (e *MaterializeError) Error() string {
	return fmt.Sprintf("create group %q (folder %s): %v", e.Name, e.ID, e.Err)
}

func (e *MaterializeError) Unwrap() error {
	return e.Err
}

// Materialize creates one destination group per folder node, breadth-first,
// so that a parent's handle always exists before its children are created.
// The returned map is keyed by folder id and includes root under "".
//
// The first failing create aborts the walk. Groups created before the
// failure are left in place.
func Materialize[H any](t *Tree, root H, create CreateFunc[H]) (map[string]H, error) {
	handles := make([]H, len(t.nodes))
	handles[rootIndex] = root

	byID := make(map[string]H, len(t.nodes))
	byID[""] = root

	var err error
	t.bfs(func(idx int) bool {
		n := t.nodes[idx]
		h, cerr := create(handles[n.parent], n.name)
		if cerr != nil {
			err = &MaterializeError{ID: n.id, Name: n.name, Err: cerr}
			return false
		}
		handles[idx] = h
		byID[n.id] = h
		return true
	})
	if err != nil {
		return nil, err
	}
	return byID, nil
}
