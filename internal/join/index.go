package join

// RepoIndex maps every pull request and issue fetched in a run to its repository name.
//
// An index is built from empty for each run. It is not safe for concurrent use; the orchestrator
// owns it for the duration of one run.
type RepoIndex map[Key]string

// NewRepoIndex returns an empty index.
func NewRepoIndex() RepoIndex {
	return make(RepoIndex)
}

// Record associates key with repoName.
func (idx RepoIndex) Record(key Key, repoName string) {
	idx[key] = repoName
}

// Repository returns the repository recorded for key, or UnknownRepository.
func (idx RepoIndex) Repository(key Key) string {
	if name, ok := idx[key]; ok {
		return name
	}
	return UnknownRepository
}

// Len returns the number of recorded keys.
func (idx RepoIndex) Len() int {
	return len(idx)
}

// ReviewSet holds review lists keyed by pull request, remembering the order in which keys were
// first added. Iteration follows that order so aggregation never depends on map ordering.
type ReviewSet[T any] struct {
	order []Key
	items map[Key][]T
}

// NewReviewSet returns an empty set.
func NewReviewSet[T any]() *ReviewSet[T] {
	return &ReviewSet[T]{items: make(map[Key][]T)}
}

// Add appends values to the list for key. A key is registered even when values is empty, which
// records that the pull request was looked at and has no reviews.
func (s *ReviewSet[T]) Add(key Key, values ...T) {
	if _, ok := s.items[key]; !ok {
		s.order = append(s.order, key)
		s.items[key] = nil
	}
	s.items[key] = append(s.items[key], values...)
}

// Get returns the list for key.
func (s *ReviewSet[T]) Get(key Key) []T {
	if s == nil {
		return nil
	}
	return s.items[key]
}

// Keys returns keys in insertion order.
func (s *ReviewSet[T]) Keys() []Key {
	if s == nil {
		return nil
	}
	out := make([]Key, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of keys.
func (s *ReviewSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Total returns the number of values across all keys.
func (s *ReviewSet[T]) Total() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, k := range s.order {
		total += len(s.items[k])
	}
	return total
}
