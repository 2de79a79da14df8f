package breaker

import (
	"errors"
	"testing"
	"time"
)

// newTestBreaker returns a breaker on a manual clock. Mutating the returned
// time moves the clock.
func newTestBreaker(cfg Config) (*Breaker, *time.Time) {
	b := New("fetch", cfg, nil, nil)
	cur := time.Unix(1700000000, 0)
	b.now = func() time.Time { return cur }
	return b, &cur
}

func TestBreaker_StartsClosed(t *testing.T) {
	b, _ := newTestBreaker(DefaultConfig())

	if got := b.State(); got != StateClosed {
		t.Errorf("State() = %v, want %v", got, StateClosed)
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() error = %v, want nil", err)
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 5, RecoveryTimeout: time.Minute})

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	if got := b.State(); got != StateClosed {
		t.Fatalf("State() after 4 failures = %v, want %v", got, StateClosed)
	}

	b.RecordFailure()
	if got := b.State(); got != StateOpen {
		t.Errorf("State() after 5 failures = %v, want %v", got, StateOpen)
	}
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 5, RecoveryTimeout: time.Minute})

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	b.RecordSuccess()
	if got := b.Failures(); got != 0 {
		t.Fatalf("Failures() after success = %d, want 0", got)
	}

	// Failures are only counted when consecutive.
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	if got := b.State(); got != StateClosed {
		t.Errorf("State() = %v, want %v", got, StateClosed)
	}
	b.RecordFailure()
	if got := b.State(); got != StateOpen {
		t.Errorf("State() = %v, want %v", got, StateOpen)
	}
}

func TestBreaker_FailFastWhileOpen(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 1, RecoveryTimeout: time.Minute})

	b.RecordFailure()
	for i := 0; i < 3; i++ {
		if err := b.Allow(); !errors.Is(err, ErrOpen) {
			t.Errorf("Allow() #%d error = %v, want ErrOpen", i, err)
		}
	}
}

func TestBreaker_ProbeAfterTimeout(t *testing.T) {
	b, cur := newTestBreaker(Config{FailureThreshold: 5, RecoveryTimeout: time.Minute})

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}

	// Exactly at the timeout the breaker still rejects.
	*cur = cur.Add(time.Minute)
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Fatalf("Allow() at timeout error = %v, want ErrOpen", err)
	}

	*cur = cur.Add(time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() past timeout error = %v, want nil", err)
	}
	if got := b.State(); got != StateHalfOpen {
		t.Errorf("State() = %v, want %v", got, StateHalfOpen)
	}

	// Only one probe is admitted.
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("second Allow() error = %v, want ErrOpen", err)
	}
}

func TestBreaker_ProbeSuccessCloses(t *testing.T) {
	b, cur := newTestBreaker(Config{FailureThreshold: 1, RecoveryTimeout: time.Minute})

	b.RecordFailure()
	*cur = cur.Add(2 * time.Minute)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() error = %v, want nil", err)
	}

	b.RecordSuccess()
	if got := b.State(); got != StateClosed {
		t.Errorf("State() = %v, want %v", got, StateClosed)
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() after close error = %v, want nil", err)
	}
}

func TestBreaker_ProbeFailureReopens(t *testing.T) {
	b, cur := newTestBreaker(Config{FailureThreshold: 1, RecoveryTimeout: time.Minute})

	b.RecordFailure()
	*cur = cur.Add(2 * time.Minute)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() error = %v, want nil", err)
	}

	b.RecordFailure()
	if got := b.State(); got != StateOpen {
		t.Fatalf("State() = %v, want %v", got, StateOpen)
	}

	// The recovery timeout starts over from the probe failure.
	*cur = cur.Add(30 * time.Second)
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("Allow() error = %v, want ErrOpen", err)
	}
	*cur = cur.Add(31 * time.Second)
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() error = %v, want nil", err)
	}
}

func TestBreaker_Reset(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 1, RecoveryTimeout: time.Hour})

	b.RecordFailure()
	if got := b.State(); got != StateOpen {
		t.Fatalf("State() = %v, want %v", got, StateOpen)
	}

	b.Reset()
	if got := b.State(); got != StateClosed {
		t.Errorf("State() after Reset = %v, want %v", got, StateClosed)
	}
	if got := b.Failures(); got != 0 {
		t.Errorf("Failures() after Reset = %d, want 0", got)
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() after Reset error = %v, want nil", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestGroup_ForReturnsSameBreaker(t *testing.T) {
	g := NewGroup(DefaultConfig(), nil, nil)

	b1 := g.For("getGroup")
	b2 := g.For("getGroup")
	if b1 != b2 {
		t.Error("For() returned different breakers for the same operation")
	}
}

func TestGroup_IsolatesOperations(t *testing.T) {
	g := NewGroup(Config{FailureThreshold: 2, RecoveryTimeout: time.Minute}, nil, nil)

	for i := 0; i < 2; i++ {
		g.For("createGroup").RecordFailure()
	}

	if got := g.For("createGroup").State(); got != StateOpen {
		t.Errorf("createGroup State() = %v, want %v", got, StateOpen)
	}
	if got := g.For("getGroupStatus").State(); got != StateClosed {
		t.Errorf("getGroupStatus State() = %v, want %v", got, StateClosed)
	}
}

func TestGroup_ResetAll(t *testing.T) {
	g := NewGroup(Config{FailureThreshold: 1, RecoveryTimeout: time.Minute}, nil, nil)

	g.For("a").RecordFailure()
	g.For("b").RecordFailure()
	g.ResetAll()

	for _, name := range []string{"a", "b"} {
		if got := g.For(name).State(); got != StateClosed {
			t.Errorf("%s State() after ResetAll = %v, want %v", name, got, StateClosed)
		}
	}
}

func TestGroup_States(t *testing.T) {
	g := NewGroup(Config{FailureThreshold: 1, RecoveryTimeout: time.Minute}, nil, nil)

	g.For("healthy").RecordSuccess()
	g.For("broken").RecordFailure()

	states := g.States()
	if len(states) != 2 {
		t.Fatalf("States() len = %d, want 2", len(states))
	}
	if states["healthy"] != StateClosed {
		t.Errorf("states[healthy] = %v, want %v", states["healthy"], StateClosed)
	}
	if states["broken"] != StateOpen {
		t.Errorf("states[broken] = %v, want %v", states["broken"], StateOpen)
	}
}
