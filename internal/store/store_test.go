package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fabricmon/telemetry/internal/model"
)

func snap(id string, bw float64) *model.TabularSnapshot {
	return &model.TabularSnapshot{
		SnapshotID: id,
		CapturedAt: time.Now(),
		Fields:     []string{"bandwidth_gbps"},
		Rows: map[string]model.MetricRow{
			"sw-000": {"bandwidth_gbps": bw},
		},
	}
}

func TestStore_ReadBeforeInstall(t *testing.T) {
	s := New()
	if _, _, ok := s.Read(); ok {
		t.Error("Read() before any install should return ok=false")
	}
	if _, ok := s.Age(); ok {
		t.Error("Age() before any install should return ok=false")
	}
	if s.Confirm(time.Now()) {
		t.Error("Confirm() before any install should return false")
	}
}

func TestStore_SequentialInstalls(t *testing.T) {
	s := New()
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("snap-%d", i)
		s.Install(snap(id, float64(i)), time.Now())

		got, _, ok := s.Read()
		if !ok {
			t.Fatalf("Read() after install %d: ok=false", i)
		}
		if got.SnapshotID != id {
			t.Errorf("Read() after install %d: id = %s, want %s", i, got.SnapshotID, id)
		}
		if v, _ := got.Value("sw-000", "bandwidth_gbps"); v != float64(i) {
			t.Errorf("Read() after install %d: value = %v, want %v", i, v, float64(i))
		}
	}
}

func TestStore_ReinstallSameIDResetsAge(t *testing.T) {
	s := New()
	s.Install(snap("snap-1", 122.4), time.Now().Add(-10*time.Second))

	before, _ := s.Age()
	if before < 9*time.Second {
		t.Fatalf("age = %v, expected ~10s", before)
	}

	// Same id: content untouched, freshness reset.
	s.Install(snap("snap-1", 999.9), time.Now())

	got, age, _ := s.Read()
	if v, _ := got.Value("sw-000", "bandwidth_gbps"); v != 122.4 {
		t.Errorf("re-install with same id replaced content: value = %v, want 122.4", v)
	}
	if age > time.Second {
		t.Errorf("age = %v, want near zero after re-confirmation", age)
	}
}

func TestStore_ConfirmAdvancesFreshness(t *testing.T) {
	s := New()
	s.Install(snap("snap-1", 122.4), time.Now().Add(-5*time.Second))

	if !s.Confirm(time.Now()) {
		t.Fatal("Confirm() = false, want true")
	}
	if age, _ := s.Age(); age > time.Second {
		t.Errorf("age = %v, want near zero after Confirm", age)
	}
}

func TestStore_ConcurrentReadersDuringInstalls(t *testing.T) {
	s := New()
	s.Install(snap("snap-0", 0), time.Now())

	done := make(chan struct{})
	var wg sync.WaitGroup

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				got, _, ok := s.Read()
				if !ok {
					t.Error("Read() lost the snapshot")
					return
				}
				// A reader must always see a complete snapshot.
				if err := got.Validate(); err != nil {
					t.Errorf("reader observed a torn snapshot: %v", err)
					return
				}
			}
		}()
	}

	for i := 1; i <= 200; i++ {
		s.Install(snap(fmt.Sprintf("snap-%d", i), float64(i)), time.Now())
	}
	close(done)
	wg.Wait()

	got, _, _ := s.Read()
	if got.SnapshotID != "snap-200" {
		t.Errorf("final snapshot id = %s, want snap-200", got.SnapshotID)
	}
}

func TestStore_SubscribeNotifiesOnContentChange(t *testing.T) {
	s := New()
	ch := make(chan Update, 4)
	s.Subscribe(ch)
	defer s.Unsubscribe(ch)

	s.Install(snap("snap-1", 1), time.Now())
	select {
	case u := <-ch:
		if u.SnapshotID != "snap-1" || u.Switches != 1 {
			t.Errorf("update = %+v, want snap-1 with 1 switch", u)
		}
	default:
		t.Fatal("no update after first install")
	}

	// Same id: no notification.
	s.Install(snap("snap-1", 1), time.Now())
	select {
	case u := <-ch:
		t.Errorf("unexpected update for unchanged content: %+v", u)
	default:
	}

	s.Install(snap("snap-2", 2), time.Now())
	select {
	case u := <-ch:
		if u.SnapshotID != "snap-2" {
			t.Errorf("update id = %s, want snap-2", u.SnapshotID)
		}
	default:
		t.Fatal("no update after content change")
	}
}
