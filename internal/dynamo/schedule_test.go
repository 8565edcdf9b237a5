package dynamo

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSchedule_OutputSteps(t *testing.T) {
	tests := []struct {
		name     string
		sched    Schedule
		expected []int
	}{
		{"cadence plus last", Schedule{FinalTime: 1, NumLoadSteps: 10, OutputFrequency: 4}, []int{0, 4, 8, 9}},
		{"single step", Schedule{FinalTime: 1, NumLoadSteps: 1, OutputFrequency: 7}, []int{0}},
		{"every step", Schedule{FinalTime: 1, NumLoadSteps: 3, OutputFrequency: 1}, []int{0, 1, 2}},
		{"last on cadence", Schedule{FinalTime: 1, NumLoadSteps: 5, OutputFrequency: 2}, []int{0, 2, 4}},
		{"frequency beyond run", Schedule{FinalTime: 1, NumLoadSteps: 4, OutputFrequency: 100}, []int{0, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, tt.sched.OutputSteps()); diff != "" {
				t.Errorf("OutputSteps() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSchedule_IsOutputStepLaw(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for freq := 1; freq <= 5; freq++ {
			s := Schedule{FinalTime: 1, NumLoadSteps: n, OutputFrequency: freq}
			for step := 0; step < n; step++ {
				want := step%freq == 0 || step == n-1
				if got := s.IsOutputStep(step); got != want {
					t.Errorf("n=%d freq=%d step=%d: got %v, want %v", n, freq, step, got, want)
				}
			}
		}
	}
}

func TestSchedule_Progress(t *testing.T) {
	s := Schedule{FinalTime: 1, NumLoadSteps: 20, OutputFrequency: 1}

	var reported []int
	for step := 0; step < s.NumLoadSteps; step++ {
		if pct, ok := s.Progress(step); ok {
			reported = append(reported, pct)
		}
	}

	expected := []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if diff := cmp.Diff(expected, reported); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestSchedule_ProgressShortRun(t *testing.T) {
	s := Schedule{FinalTime: 1, NumLoadSteps: 3, OutputFrequency: 1}

	var reported []int
	for step := 0; step < s.NumLoadSteps; step++ {
		if pct, ok := s.Progress(step); ok {
			reported = append(reported, pct)
		}
	}

	if diff := cmp.Diff([]int{100}, reported); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		name  string
		sched Schedule
		ok    bool
	}{
		{"valid", Schedule{FinalTime: 1, NumLoadSteps: 10, OutputFrequency: 1}, true},
		{"zero final time", Schedule{FinalTime: 0, NumLoadSteps: 10, OutputFrequency: 1}, true},
		{"zero steps", Schedule{FinalTime: 1, NumLoadSteps: 0, OutputFrequency: 1}, false},
		{"negative time", Schedule{FinalTime: -1, NumLoadSteps: 10, OutputFrequency: 1}, false},
		{"zero frequency", Schedule{FinalTime: 1, NumLoadSteps: 10, OutputFrequency: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sched.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestTimeState_UniformSteps(t *testing.T) {
	s := Schedule{FinalTime: 0.3, NumLoadSteps: 1000, OutputFrequency: 1}
	inc := s.Increment()

	var ts TimeState
	for step := 0; step < s.NumLoadSteps; step++ {
		prev := ts.Current
		dt, half := ts.Advance(inc)
		if ts.Previous != prev {
			t.Fatalf("step %d: previous time not carried over", step)
		}
		if math.Abs(dt-inc) > 1e-12 {
			t.Fatalf("step %d: dt=%g, want %g", step, dt, inc)
		}
		if half != 0.5*dt {
			t.Fatalf("step %d: half dt=%g, want %g", step, half, 0.5*dt)
		}
	}

	if math.Abs(ts.Current-s.FinalTime) > 1e-10 {
		t.Errorf("final time %g, want %g", ts.Current, s.FinalTime)
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Step: 3, Time: 0.5, Phase: "internal force", Wrapped: ErrZeroMass}
	if !errors.Is(err, ErrZeroMass) {
		t.Error("SimulationError should unwrap to its cause")
	}
	expected := "step 3 (t=0.5) internal force: dynamo: non-positive lumped mass"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestMassError(t *testing.T) {
	err := &MassError{Node: 4, Mass: 0}
	if !errors.Is(err, ErrZeroMass) {
		t.Error("MassError should match ErrZeroMass")
	}
}
