package kb

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/signalsfoundry/kavach-slot-planner/model"
)

var (
	// ErrStationExists is returned when adding a name that is already known.
	ErrStationExists = errors.New("station already exists")
	// ErrStationNotFound is returned for lookups of unknown names.
	ErrStationNotFound = errors.New("station not found")
	// ErrInvalidStation wraps validation failures of approved records.
	ErrInvalidStation = errors.New("invalid approved station")
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventStationAdded EventType = iota
	EventStationUpdated
	EventStationRemoved
)

func (t EventType) String() string {
	switch t {
	case EventStationAdded:
		return "added"
	case EventStationUpdated:
		return "updated"
	case EventStationRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers when an approved station changes.
type Event struct {
	Type    EventType
	Station model.ApprovedStation
}

// KnowledgeBase is an in-memory, thread-safe registry of approved stations.
// Stations are keyed by name and listed in insertion order.
type KnowledgeBase struct {
	mu sync.RWMutex

	stations map[string]model.ApprovedStation
	order    []string

	subs   map[int]func(Event)
	nextID int
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		stations: make(map[string]model.ApprovedStation),
		subs:     make(map[int]func(Event)),
	}
}

func key(name string) string { return strings.TrimSpace(name) }

// AddStation registers a new approved station.
func (kb *KnowledgeBase) AddStation(s model.ApprovedStation) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStation, err)
	}
	s.Name = key(s.Name)

	kb.mu.Lock()
	if _, exists := kb.stations[s.Name]; exists {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrStationExists, s.Name)
	}
	kb.stations[s.Name] = s
	kb.order = append(kb.order, s.Name)
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventStationAdded, Station: s})
	return nil
}

// UpsertStation adds s or replaces the station with the same name.
func (kb *KnowledgeBase) UpsertStation(s model.ApprovedStation) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStation, err)
	}
	s.Name = key(s.Name)

	kb.mu.Lock()
	ev := Event{Type: EventStationUpdated, Station: s}
	if _, exists := kb.stations[s.Name]; !exists {
		ev.Type = EventStationAdded
		kb.order = append(kb.order, s.Name)
	}
	kb.stations[s.Name] = s
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	notify(subs, ev)
	return nil
}

// GetStation returns the station with the given name.
func (kb *KnowledgeBase) GetStation(name string) (model.ApprovedStation, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	s, ok := kb.stations[key(name)]
	if !ok {
		return model.ApprovedStation{}, fmt.Errorf("%w: %q", ErrStationNotFound, name)
	}
	return s, nil
}

// RemoveStation deletes a station.
func (kb *KnowledgeBase) RemoveStation(name string) error {
	name = key(name)
	kb.mu.Lock()
	s, ok := kb.stations[name]
	if !ok {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrStationNotFound, name)
	}
	delete(kb.stations, name)
	for i, n := range kb.order {
		if n == name {
			kb.order = append(kb.order[:i], kb.order[i+1:]...)
			break
		}
	}
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventStationRemoved, Station: s})
	return nil
}

// Len returns the number of stations.
func (kb *KnowledgeBase) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.stations)
}

// ListStations returns every station in insertion order.
func (kb *KnowledgeBase) ListStations() []model.ApprovedStation {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]model.ApprovedStation, 0, len(kb.order))
	for _, name := range kb.order {
		res = append(res, kb.stations[name])
	}
	return res
}

// Snapshot returns an independent copy of the stations that hold a
// frequency, in insertion order. This is the read-only view an allocation
// run consumes.
func (kb *KnowledgeBase) Snapshot() []model.ApprovedStation {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]model.ApprovedStation, 0, len(kb.order))
	for _, name := range kb.order {
		if s := kb.stations[name]; s.Frequency.IsAllocated() {
			res = append(res, s)
		}
	}
	return res
}

// Load replaces the KB contents with stations without notifying
// subscribers. Invalid records are returned as a joined error and skipped.
func (kb *KnowledgeBase) Load(stations []model.ApprovedStation) error {
	var errs []error
	m := make(map[string]model.ApprovedStation, len(stations))
	order := make([]string, 0, len(stations))
	for _, s := range stations {
		if err := s.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidStation, err))
			continue
		}
		s.Name = key(s.Name)
		if _, dup := m[s.Name]; !dup {
			order = append(order, s.Name)
		}
		m[s.Name] = s
	}

	kb.mu.Lock()
	kb.stations = m
	kb.order = order
	kb.mu.Unlock()
	return errors.Join(errs...)
}

// Subscribe registers a callback for KB events. It returns an unsubscribe function.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.nextID
	kb.nextID++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

func (kb *KnowledgeBase) subscribersLocked() []func(Event) {
	ids := make([]int, 0, len(kb.subs))
	for id := range kb.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	subs := make([]func(Event), len(ids))
	for i, id := range ids {
		subs[i] = kb.subs[id]
	}
	return subs
}

// Subscribers are called outside the lock to avoid deadlocks.
func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}
