// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"

	"github.com/loom-ml/loom/internal/tensor"
)

// MatMul performs 2D matrix multiplication: [M, K] @ [K, N] -> [M, N].
func (c *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("cpu: matmul requires 2D operands, got %v and %v", aShape, bShape))
	}
	m, k := aShape[0], aShape[1]
	k2, n := bShape[0], bShape[1]
	if k != k2 {
		panic(fmt.Sprintf("cpu: matmul inner dimensions differ: %v vs %v", aShape, bShape))
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n}, tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("cpu: matmul: %v", err))
	}
	matmulFloat32(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n)
	return result
}

// BatchMatMul performs batched matrix multiplication for 3D/4D tensors.
// The leading (batch) dimensions of both operands must match exactly.
func (c *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	nd := len(aShape)
	if nd != len(bShape) || (nd != 3 && nd != 4) {
		panic(fmt.Sprintf("cpu: batchmatmul requires matching 3D or 4D operands, got %v and %v", aShape, bShape))
	}
	batch := 1
	for i := 0; i < nd-2; i++ {
		if aShape[i] != bShape[i] {
			panic(fmt.Sprintf("cpu: batchmatmul batch dimensions differ: %v vs %v", aShape, bShape))
		}
		batch *= aShape[i]
	}
	m, k := aShape[nd-2], aShape[nd-1]
	k2, n := bShape[nd-2], bShape[nd-1]
	if k != k2 {
		panic(fmt.Sprintf("cpu: batchmatmul inner dimensions differ: %v vs %v", aShape, bShape))
	}

	outShape := aShape.Clone()
	outShape[nd-1] = n
	result, err := tensor.NewRaw(outShape, tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("cpu: batchmatmul: %v", err))
	}

	av, bv, out := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
	for bi := 0; bi < batch; bi++ {
		matmulFloat32(
			out[bi*m*n:(bi+1)*m*n],
			av[bi*m*k:(bi+1)*m*k],
			bv[bi*k*n:(bi+1)*k*n],
			m, k, n,
		)
	}
	return result
}

// matmulFloat32 computes out = a @ b with the ikj loop order, which keeps
// the inner loop sequential over both b and out.
func matmulFloat32(out, a, b []float32, m, k, n int) {
	for i := 0; i < m; i++ {
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			bRow := b[p*n : (p+1)*n]
			outRow := out[i*n : (i+1)*n]
			for j := range bRow {
				outRow[j] += av * bRow[j]
			}
		}
	}
}
