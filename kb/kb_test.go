package kb

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/signalsfoundry/kavach-slot-planner/model"
)

func station(name string, freq model.FrequencyID) model.ApprovedStation {
	return model.ApprovedStation{Name: name, Latitude: 17.44, Longitude: 78.50, SafeRadiusKm: 12, Frequency: freq}
}

func TestAddAndGetStation(t *testing.T) {
	store := NewKnowledgeBase()
	if err := store.AddStation(station(" Secunderabad ", 1)); err != nil {
		t.Fatalf("AddStation error: %v", err)
	}
	got, err := store.GetStation("Secunderabad")
	if err != nil || got.Frequency != 1 {
		t.Fatalf("GetStation returned %#v, %v", got, err)
	}
	if _, err := store.GetStation("missing"); !errors.Is(err, ErrStationNotFound) {
		t.Fatalf("expected ErrStationNotFound, got %v", err)
	}
}

func TestAddStationDuplicateAndInvalid(t *testing.T) {
	store := NewKnowledgeBase()
	if err := store.AddStation(station("A", 1)); err != nil {
		t.Fatalf("first AddStation error: %v", err)
	}
	if err := store.AddStation(station("A", 2)); !errors.Is(err, ErrStationExists) {
		t.Fatalf("expected ErrStationExists, got %v", err)
	}
	bad := station("B", 1)
	bad.Latitude = 120
	if err := store.AddStation(bad); !errors.Is(err, ErrInvalidStation) {
		t.Fatalf("expected ErrInvalidStation, got %v", err)
	}
}

func TestSnapshotIsOrderedAndSkipsPending(t *testing.T) {
	store := NewKnowledgeBase()
	for i, f := range []model.FrequencyID{3, 0, 1, 2} {
		if err := store.AddStation(station(fmt.Sprintf("s-%d", i), f)); err != nil {
			t.Fatalf("AddStation: %v", err)
		}
	}
	snap := store.Snapshot()
	if len(snap) != 3 || snap[0].Name != "s-0" || snap[1].Name != "s-2" || snap[2].Name != "s-3" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	snap[0].Frequency = 7
	if got, _ := store.GetStation("s-0"); got.Frequency != 3 {
		t.Fatalf("snapshot aliases KB state")
	}
	if len(store.ListStations()) != 4 {
		t.Fatalf("ListStations should include pending stations")
	}
}

func TestUpsertRemoveAndSubscribe(t *testing.T) {
	store := NewKnowledgeBase()
	var events []EventType
	unsubscribe := store.Subscribe(func(ev Event) { events = append(events, ev.Type) })

	_ = store.UpsertStation(station("A", 1))
	_ = store.UpsertStation(station("A", 2))
	if err := store.RemoveStation("A"); err != nil {
		t.Fatalf("RemoveStation: %v", err)
	}
	if err := store.RemoveStation("A"); !errors.Is(err, ErrStationNotFound) {
		t.Fatalf("expected ErrStationNotFound, got %v", err)
	}
	unsubscribe()
	_ = store.AddStation(station("B", 1))

	want := []EventType{EventStationAdded, EventStationUpdated, EventStationRemoved}
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
}

func TestLoadReplacesContents(t *testing.T) {
	store := NewKnowledgeBase()
	_ = store.AddStation(station("old", 1))
	bad := station("bad", 1)
	bad.SafeRadiusKm = -1
	err := store.Load([]model.ApprovedStation{station("x", 1), bad, station("y", 2)})
	if !errors.Is(err, ErrInvalidStation) {
		t.Fatalf("expected ErrInvalidStation, got %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}
	if _, err := store.GetStation("old"); !errors.Is(err, ErrStationNotFound) {
		t.Fatalf("Load should drop previous contents")
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewKnowledgeBase()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.UpsertStation(station(fmt.Sprintf("s-%d", i), model.FrequencyID(i%7+1)))
		}(i)
		go func() {
			defer wg.Done()
			_ = store.Snapshot()
		}()
	}
	wg.Wait()
	if store.Len() != 20 {
		t.Fatalf("Len = %d, want 20", store.Len())
	}
}
