package gridsync

// Lifecycle events published on the optional event bus so screen-level
// code can react to controller outcomes without polling it.

type SavedEvent struct {
	Entity  string
	Created int
	Updated int
}

type DeletedEvent struct {
	Entity    string
	Staged    int
	Persisted int
}

type SearchedEvent struct {
	Entity string
	Count  int
}

type ValidationFailedEvent struct {
	Entity  string
	Summary string
}
