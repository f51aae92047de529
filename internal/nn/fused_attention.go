// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import "math"

// onlineSoftmax accumulates softmax-weighted values incrementally, keeping
// running max and exp-sum statistics so the full score row is never
// materialized. This is the building block of the fused attention kernel.
type onlineSoftmax struct {
	maxVal float32
	sumExp float32
	out    []float32
}

func newOnlineSoftmax(headDim int) *onlineSoftmax {
	return &onlineSoftmax{
		maxVal: float32(math.Inf(-1)),
		out:    make([]float32, headDim),
	}
}

// update folds one (score, value-row) pair into the accumulator:
//
//	newMax = max(maxVal, score)
//	rescale previous sums by exp(maxVal - newMax)
//	add exp(score - newMax) * value
func (os *onlineSoftmax) update(score float32, value []float32) {
	newMax := os.maxVal
	if score > newMax {
		newMax = score
	}
	correction := float32(math.Exp(float64(os.maxVal - newMax)))
	weight := float32(math.Exp(float64(score - newMax)))

	os.sumExp = os.sumExp*correction + weight
	for d := range os.out {
		os.out[d] = os.out[d]*correction + weight*value[d]
	}
	os.maxVal = newMax
}

// normalize finalizes the accumulator into dst. A row that saw no keys
// (fully masked) yields zeros, matching the reference softmax convention.
func (os *onlineSoftmax) normalize(dst []float32) {
	if os.sumExp == 0 {
		for d := range dst {
			dst[d] = 0
		}
		return
	}
	for d := range dst {
		dst[d] = os.out[d] / os.sumExp
	}
}

// fusedAttention computes scaled dot-product self-attention with O(seq)
// extra memory per row via online softmax.
//
// q, k, v are flat [batch, seqLen, numHeads, headDim]. Pass scale 0 to
// auto-compute 1/sqrt(headDim). With causal set, key j > query i is
// skipped; with a non-nil validity mask (flat [batch, seqLen]), padded
// keys are skipped.
//
// Returns the flat output [batch, seqLen, numHeads, headDim].
func fusedAttention(
	q, k, v []float32,
	batch, seqLen, numHeads, headDim int,
	scale float32,
	causal bool,
	validity []bool,
) []float32 {
	if scale == 0 {
		scale = float32(1.0 / math.Sqrt(float64(headDim)))
	}
	output := make([]float32, batch*seqLen*numHeads*headDim)

	rowStride := numHeads * headDim
	for b := 0; b < batch; b++ {
		for h := 0; h < numHeads; h++ {
			for i := 0; i < seqLen; i++ {
				acc := newOnlineSoftmax(headDim)
				qRow := q[b*seqLen*rowStride+i*rowStride+h*headDim:][:headDim]

				kvEnd := seqLen
				if causal {
					kvEnd = i + 1
				}
				for j := 0; j < kvEnd; j++ {
					if validity != nil && !validity[b*seqLen+j] {
						continue
					}
					kRow := k[b*seqLen*rowStride+j*rowStride+h*headDim:][:headDim]
					score := float32(0)
					for d := 0; d < headDim; d++ {
						score += qRow[d] * kRow[d]
					}
					vRow := v[b*seqLen*rowStride+j*rowStride+h*headDim:][:headDim]
					acc.update(score*scale, vRow)
				}

				acc.normalize(output[b*seqLen*rowStride+i*rowStride+h*headDim:][:headDim])
			}
		}
	}
	return output
}
