package cache

import "time"

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// State is the observable state of a cached result.
//
// While a refetch is loading, Value and FetchedAt still describe the previous
// successful result, if any. Err is set only in StatusError.
type State[T any] struct {
	Status    Status
	Value     T
	Err       error
	FetchedAt time.Time
}

// snapshot is the untyped form of State kept by the store.
type snapshot struct {
	status    Status
	value     any
	err       error
	fetchedAt time.Time
}

func stateOf[T any](s snapshot) State[T] {
	v, _ := s.value.(T)
	return State[T]{Status: s.status, Value: v, Err: s.err, FetchedAt: s.fetchedAt}
}
