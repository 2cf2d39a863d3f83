package sources

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// MinConfidence is the lowest Detect score DetectSource accepts.
const MinConfidence = 50

// Registry holds the available vault sources, kept sorted by name.
type Registry struct {
	mu      sync.RWMutex
	sources []Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) index(name string) (int, bool) {
	i := sort.Search(len(r.sources), func(i int) bool {
		return r.sources[i].Name() >= name
	})
	return i, i < len(r.sources) && r.sources[i].Name() == name
}

// Register adds s, replacing any source with the same name.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, found := r.index(s.Name())
	if found {
		r.sources[i] = s
		return
	}
	r.sources = append(r.sources, nil)
	copy(r.sources[i+1:], r.sources[i:])
	r.sources[i] = s
}

// Get looks a source up by name.
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, found := r.index(name)
	if !found {
		return nil, false
	}
	return r.sources[i], true
}

// List returns the registered sources sorted by name.
func (r *Registry) List() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Source(nil), r.sources...)
}

// Names returns the registered source names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

// Count returns the number of registered sources.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// DetectSource picks the source with the highest confidence for path, an
// export file or a bw binary. Sources claiming the path's extension are
// asked first and, when none does, every source is. Ties go to the first
// name. Returns *ErrSourceNotFound when no score reaches MinConfidence.
func (r *Registry) DetectSource(path string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := r.claiming(strings.ToLower(filepath.Ext(path)))
	if len(candidates) == 0 {
		candidates = r.sources
	}

	var best Source
	bestScore := MinConfidence - 1
	for _, s := range candidates {
		score, err := s.Detect(path)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = s, score
		}
	}

	if best == nil {
		return nil, &ErrSourceNotFound{Path: path, MinConfidence: MinConfidence}
	}
	return best, nil
}

func (r *Registry) claiming(ext string) []Source {
	if ext == "" {
		return nil
	}
	var out []Source
	for _, s := range r.sources {
		for _, e := range s.SupportedExtensions() {
			if strings.EqualFold(e, ext) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the global registry. Built-in sources register
// themselves from init functions.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// RegisterDefault registers a source with the default registry.
func RegisterDefault(s Source) {
	DefaultRegistry().Register(s)
}
