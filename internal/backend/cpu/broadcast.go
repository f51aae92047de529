// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import "github.com/loom-ml/loom/internal/tensor"

// broadcastStrides computes strides for reading inShape as if it had been
// broadcast to outShape: padded and size-1 dimensions get stride 0.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)
	offset := outDim - len(inShape)
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0:
			strides[i] = 0
		case inShape[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = origStrides[inIdx]
		}
	}
	return strides
}

// flatIndex maps a flat output index to the flat source index under the
// broadcast-adjusted strides.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	flat := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flat += coord * inStrides[i]
	}
	return flat
}
