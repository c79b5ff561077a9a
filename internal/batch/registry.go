package batch

import "sync"

// Registry is the set of paths submitted during this process, with
// insert-if-absent semantics. In-flight paths are never evicted; once more
// than capacity paths have completed, the oldest completions are forgotten.
type Registry struct {
	mu       sync.Mutex
	capacity int
	inflight map[string]struct{}
	done     map[string]struct{}
	order    []string
}

// NewRegistry returns a registry remembering up to capacity completed paths.
// A capacity below one keeps a single completion.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		capacity: max(capacity, 1),
		inflight: make(map[string]struct{}),
		done:     make(map[string]struct{}),
	}
}

// Claim records path as in flight. It returns false when the path is already
// in flight or remembered as completed.
func (r *Registry) Claim(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inflight[path]; ok {
		return false
	}
	if _, ok := r.done[path]; ok {
		return false
	}
	r.inflight[path] = struct{}{}
	return true
}

// Done moves path from in flight to completed.
func (r *Registry) Done(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inflight[path]; !ok {
		return
	}
	delete(r.inflight, path)
	r.done[path] = struct{}{}
	r.order = append(r.order, path)
	for len(r.order) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.done, oldest)
	}
}

// Release forgets an in-flight path so it can be claimed again.
func (r *Registry) Release(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, path)
}

// Len returns the number of paths currently remembered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight) + len(r.done)
}
