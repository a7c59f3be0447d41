package perception

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var t0 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

// Arrivals at 0, 500, 1500, 2100, 2500 and 4200 ms with a 2 s cooldown
// admit only 0, 2100 and 4200.
func TestAdmitRequestCooldown(t *testing.T) {
	d := NewDebouncer(2*time.Second, 10*time.Second)

	tests := []struct {
		ms   int
		want bool
	}{
		{0, true},
		{500, false},
		{1500, false},
		{2100, true},
		{2500, false},
		{4200, true},
	}
	for _, tt := range tests {
		if got := d.AdmitRequest(at(tt.ms)); got != tt.want {
			t.Errorf("AdmitRequest(%dms) = %v, want %v", tt.ms, got, tt.want)
		}
	}
}

func TestAdmitRequestBoundary(t *testing.T) {
	d := NewDebouncer(2*time.Second, 0)
	d.AdmitRequest(at(0))
	if d.AdmitRequest(at(1999)) {
		t.Error("1999ms should be inside the cooldown")
	}
	if !d.AdmitRequest(at(2000)) {
		t.Error("2000ms should be admitted")
	}
}

// Recognitions of alice at 0, 3000 and 11000 ms greet at 0 and 11000.
func TestObserveSuppressesSamePerson(t *testing.T) {
	d := NewDebouncer(2*time.Second, 10*time.Second)

	tests := []struct {
		name string
		ms   int
		want bool
	}{
		{"alice", 0, true},
		{"alice", 3000, false},
		{"alice", 11000, true},
	}
	for _, tt := range tests {
		if got := d.Observe(tt.name, at(tt.ms)); got != tt.want {
			t.Errorf("Observe(%s, %dms) = %v, want %v", tt.name, tt.ms, got, tt.want)
		}
	}
}

func TestObserveDifferentPersonAndMiss(t *testing.T) {
	d := NewDebouncer(0, 10*time.Second)

	if !d.Observe("alice", at(0)) {
		t.Fatal("alice should be greeted")
	}
	if !d.Observe("bob", at(1000)) {
		t.Error("a different person is greeted right away")
	}
	if d.Observe("", at(2000)) {
		t.Error("an empty identity never greets")
	}
	if d.LastIdentity() != "" {
		t.Errorf("LastIdentity = %q after a miss", d.LastIdentity())
	}
	// The miss cleared bob, so he is greeted again inside the window.
	if !d.Observe("bob", at(3000)) {
		t.Error("bob should be greeted after leaving view")
	}
}

func TestAdmitRequestConcurrent(t *testing.T) {
	d := NewDebouncer(time.Hour, 0)
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.AdmitRequest(t0) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	if admitted.Load() != 1 {
		t.Errorf("admitted %d requests, want 1", admitted.Load())
	}
}
