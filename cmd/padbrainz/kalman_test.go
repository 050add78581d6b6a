package main

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"
)

// TestKalmanSmoother_RejectsNonPositiveNoise tests that a non-positive
// observation noise variance is a constructor error.
func TestKalmanSmoother_RejectsNonPositiveNoise(t *testing.T) {
	f := mat.NewDense(2, 2, []float64{1, 0.01, 0, 1})
	h := mat.NewDense(1, 2, []float64{1, 0})
	q := mat.NewDense(2, 2, []float64{0, 0, 0, 0})
	x0 := mat.NewVecDense(2, []float64{0, 0})
	p0 := mat.NewDense(2, 2, []float64{1, 0, 0, 1})

	for _, r := range []float64{0, -1} {
		if _, err := NewKalmanSmoother(f, h, q, r, x0, p0); err == nil {
			t.Errorf("expected error for r=%g, got nil", r)
		}
	}
}

// TestKalmanSmoother_ConvergesToConstant feeds a constant observation and
// checks the estimate climbs from zero toward it and lands within 1 unit
// after 300 steps.
func TestKalmanSmoother_ConvergesToConstant(t *testing.T) {
	const target = 1000.0
	k := NewDefaultKalmanSmoother(10 * time.Millisecond)

	var est float64
	var prev float64
	for i := 0; i < 300; i++ {
		est = k.Step(target)
		if i == 0 && (est <= 0 || est >= target) {
			t.Fatalf("expected first estimate between 0 and %g, got %g", target, est)
		}
		if i > 0 && i < 20 && est <= prev {
			t.Fatalf("step %d: expected estimate still climbing, got %g after %g", i, est, prev)
		}
		prev = est
	}

	if diff := math.Abs(est - target); diff >= 1 {
		t.Errorf("expected estimate within 1 of %g after 300 steps, got %g", target, est)
	}
	if k.Position() != est {
		t.Errorf("expected Position to match the last Step result, got %g vs %g", k.Position(), est)
	}
}

// TestKalmanSmoother_TracksStepChange settles the filter at a resting level
// and then drops the observation, checking the estimate tracks down through
// the pad threshold with a multi-sample lag rather than jumping.
func TestKalmanSmoother_TracksStepChange(t *testing.T) {
	k := NewDefaultKalmanSmoother(10 * time.Millisecond)
	for i := 0; i < 500; i++ {
		k.Step(40000)
	}
	if math.Abs(k.Position()-40000) > 1 {
		t.Fatalf("expected filter settled near 40000, got %g", k.Position())
	}

	crossedAt := -1
	prev := k.Position()
	for i := 0; i < 40; i++ {
		est := k.Step(8000)
		if est >= prev {
			t.Fatalf("step %d: expected estimate strictly decreasing, got %g after %g", i, est, prev)
		}
		if est < 8000 {
			t.Fatalf("step %d: estimate %g undershot the new level", i, est)
		}
		if est < 15000 && crossedAt == -1 {
			crossedAt = i
			break
		}
		prev = est
	}

	if crossedAt == -1 {
		t.Fatal("expected the estimate below 15000 within 40 steps")
	}
	if crossedAt < 5 {
		t.Errorf("expected a smoothing lag of at least 5 steps, crossed at %d", crossedAt)
	}
}
