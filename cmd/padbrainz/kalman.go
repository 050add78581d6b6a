package main

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// KalmanSmoother is a discrete linear Kalman filter with two hidden states
// (position and velocity of the signal) and one observed scalar (the raw ADC
// reading). It is used to denoise a pad channel before threshold comparison
// when the hardware signal is noisy.
//
// Step is the only mutator; there is no reset. A pad that needs a fresh
// filter constructs a new one.
type KalmanSmoother struct {
	f *mat.Dense // state transition (2x2)
	h *mat.Dense // observation model (1x2)
	q *mat.Dense // process noise (2x2)
	r float64    // observation noise variance

	x *mat.VecDense // state estimate [position, velocity]
	p *mat.Dense    // estimate covariance (2x2)
}

// NewKalmanSmoother builds a filter from explicit model matrices.
//
// r is the observation noise variance and must be positive: with r > 0 the
// innovation covariance is always invertible, so Step never has to handle a
// singular system. A non-positive r is a configuration error, reported here
// rather than at sample time.
func NewKalmanSmoother(f, h, q *mat.Dense, r float64, x0 *mat.VecDense, p0 *mat.Dense) (*KalmanSmoother, error) {
	if r <= 0 {
		return nil, fmt.Errorf("kalman: observation noise variance must be > 0, got %g", r)
	}
	k := &KalmanSmoother{
		f: mat.DenseCopyOf(f),
		h: mat.DenseCopyOf(h),
		q: mat.DenseCopyOf(q),
		r: r,
		x: mat.VecDenseCopyOf(x0),
		p: mat.DenseCopyOf(p0),
	}
	return k, nil
}

// NewDefaultKalmanSmoother returns a filter tuned for a fixed sampling
// period (the loop's pad sampling interval, 10 ms by default):
//
//	F = [[1,T],[0,1]]   H = [1,0]   Q = [[T³/3,T²/2],[T²/2,T]]   R = 1
//
// with x0 = [0,0] and P0 = I.
func NewDefaultKalmanSmoother(period time.Duration) *KalmanSmoother {
	t := period.Seconds()
	k, err := NewKalmanSmoother(
		mat.NewDense(2, 2, []float64{1, t, 0, 1}),
		mat.NewDense(1, 2, []float64{1, 0}),
		mat.NewDense(2, 2, []float64{t * t * t / 3, t * t / 2, t * t / 2, t}),
		1,
		mat.NewVecDense(2, []float64{0, 0}),
		mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
	)
	if err != nil {
		// Unreachable: the default tuning has R = 1.
		panic(err)
	}
	return k
}

// Step folds one observation into the filter and returns the updated
// position estimate.
func (k *KalmanSmoother) Step(y float64) float64 {
	// Predict: x' = F·x, P' = F·P·Fᵀ + Q
	var xp mat.VecDense
	xp.MulVec(k.f, k.x)
	var fp, pp mat.Dense
	fp.Mul(k.f, k.p)
	pp.Mul(&fp, k.f.T())
	var ppq mat.Dense
	ppq.Add(&pp, k.q)

	// Innovation covariance: S = H·P'·Hᵀ + R (scalar, positive since R > 0)
	var hp mat.Dense
	hp.Mul(k.h, &ppq)
	var hph mat.Dense
	hph.Mul(&hp, k.h.T())
	s := hph.At(0, 0) + k.r

	// Gain: K = P'·Hᵀ·S⁻¹
	var pht mat.Dense
	pht.Mul(&ppq, k.h.T())
	gain := mat.NewVecDense(2, []float64{pht.At(0, 0) / s, pht.At(1, 0) / s})

	// Update: x = x' + K·(y − H·x'), P = P' − K·H·P'
	var hx mat.VecDense
	hx.MulVec(k.h, &xp)
	innovation := y - hx.AtVec(0)
	k.x.AddScaledVec(&xp, innovation, gain)

	var khp mat.Dense
	khp.Outer(1, gain, mat.NewVecDense(2, []float64{hp.At(0, 0), hp.At(0, 1)}))
	var pnext mat.Dense
	pnext.Sub(&ppq, &khp)
	k.p = &pnext

	return k.x.AtVec(0)
}

// Position returns the current position estimate without folding in a new
// observation.
func (k *KalmanSmoother) Position() float64 {
	return k.x.AtVec(0)
}
