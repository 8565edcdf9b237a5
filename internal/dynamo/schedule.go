package dynamo

import "fmt"

// Schedule describes a uniform explicit run: num_load_steps equal increments
// up to final_time, with output every output_frequency steps.
type Schedule struct {
	FinalTime       float64
	NumLoadSteps    int
	OutputFrequency int
}

func (s Schedule) Validate() error {
	if s.NumLoadSteps <= 0 {
		return fmt.Errorf("%w: num_load_steps must be positive, got %d", ErrInvalidConfig, s.NumLoadSteps)
	}
	if s.FinalTime < 0 {
		return fmt.Errorf("%w: final_time must be non-negative, got %g", ErrInvalidConfig, s.FinalTime)
	}
	if s.OutputFrequency <= 0 {
		return fmt.Errorf("%w: output_frequency must be positive, got %d", ErrInvalidConfig, s.OutputFrequency)
	}
	return nil
}

// Increment is the nominal step size final_time/num_load_steps.
func (s Schedule) Increment() float64 {
	return s.FinalTime / float64(s.NumLoadSteps)
}

// IsOutputStep holds on the output cadence and always on the last step.
func (s Schedule) IsOutputStep(step int) bool {
	return step%s.OutputFrequency == 0 || step == s.NumLoadSteps-1
}

// OutputSteps lists every step index for which IsOutputStep holds.
func (s Schedule) OutputSteps() []int {
	steps := make([]int, 0, s.NumLoadSteps/s.OutputFrequency+2)
	for step := 0; step < s.NumLoadSteps; step++ {
		if s.IsOutputStep(step) {
			steps = append(steps, step)
		}
	}
	return steps
}

// Progress reports the percent complete after step when step closes a decile
// of the run. The last step always reports 100.
func (s Schedule) Progress(step int) (int, bool) {
	n := s.NumLoadSteps
	if step == n-1 {
		return 100, true
	}
	if 10*(step+1)%n == 0 {
		return int(100.0 * float64(step+1) / float64(n)), true
	}
	return 0, false
}

// TimeState is the running (previous, current) time pair of a run.
type TimeState struct {
	Previous float64
	Current  float64
}

// Advance moves the pair forward by increment and returns the step size
// recomputed from the new pair, plus its half.
func (ts *TimeState) Advance(increment float64) (dt, halfDt float64) {
	ts.Previous = ts.Current
	ts.Current += increment
	dt = ts.Current - ts.Previous
	return dt, 0.5 * dt
}
