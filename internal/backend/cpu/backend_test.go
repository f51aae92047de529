// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"math"
	"testing"

	"github.com/loom-ml/loom/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromSlice(t *testing.T, data []float32, shape tensor.Shape) *tensor.Tensor[float32, *CPUBackend] {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, New())
	require.NoError(t, err)
	return x
}

func TestAdd_SameShape(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})
	assert.Equal(t, []float32{11, 22, 33, 44}, a.Add(b).Data())
}

func TestAdd_Broadcast(t *testing.T) {
	// [2, 3] + [3] broadcasts the vector across rows.
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromSlice(t, []float32{10, 20, 30}, tensor.Shape{3})
	out := a.Add(b)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, out.Data())
}

func TestAdd_BroadcastLeading(t *testing.T) {
	// [1, 2, 2] + [2, 1, 2]: both sides broadcast.
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 2, 2})
	b := fromSlice(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 1, 2})
	out := a.Add(b)
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{11, 22, 13, 24, 31, 42, 33, 44}, out.Data())
}

func TestSubMulDiv(t *testing.T) {
	a := fromSlice(t, []float32{8, 6, 4, 2}, tensor.Shape{4})
	b := fromSlice(t, []float32{2, 2, 2, 2}, tensor.Shape{4})
	assert.Equal(t, []float32{6, 4, 2, 0}, a.Sub(b).Data())
	assert.Equal(t, []float32{16, 12, 8, 4}, a.Mul(b).Data())
	assert.Equal(t, []float32{4, 3, 2, 1}, a.Div(b).Data())
}

func TestScalarOps(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3})
	assert.Equal(t, []float32{2, 4, 6}, a.MulScalar(2).Data())
	assert.Equal(t, []float32{11, 12, 13}, a.AddScalar(10).Data())
}

func TestMatMul(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromSlice(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})
	out := a.MatMul(b)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, out.Data())
}

func TestMatMul_ShapeMismatch(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3, 1})
	assert.Panics(t, func() { a.MatMul(b) })
}

func TestBatchMatMul_3D(t *testing.T) {
	// Two independent 2x2 @ 2x2 multiplications.
	a := fromSlice(t, []float32{
		1, 0, 0, 1, // identity
		2, 0, 0, 2, // 2*identity
	}, tensor.Shape{2, 2, 2})
	b := fromSlice(t, []float32{
		1, 2, 3, 4,
		1, 2, 3, 4,
	}, tensor.Shape{2, 2, 2})
	out := a.BatchMatMul(b)
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 2, 4, 6, 8}, out.Data())
}

func TestBatchMatMul_4D(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	b := fromSlice(t, []float32{1, 0, 0, 1}, tensor.Shape{1, 1, 2, 2})
	out := a.BatchMatMul(b)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4}, out.Data())
}

func TestTranspose_2D(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	out := a.Transpose()
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, out.Data())
}

func TestTranspose_Axes(t *testing.T) {
	// [1, 2, 3] -> [1, 3, 2]
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{1, 2, 3})
	out := a.Transpose(0, 2, 1)
	assert.Equal(t, tensor.Shape{1, 3, 2}, out.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, out.Data())
}

func TestReshape(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	out := a.Reshape(3, 2)
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, out.Data())
}

func TestSoftmax_LastDim(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 1, 2, 3}, tensor.Shape{2, 3})
	out := a.Softmax(-1).Data()
	for row := 0; row < 2; row++ {
		sum := float32(0)
		for i := 0; i < 3; i++ {
			sum += out[row*3+i]
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
	}
	// Softmax of [1,2,3]: monotone in the logits.
	assert.Less(t, out[0], out[1])
	assert.Less(t, out[1], out[2])
}

func TestSoftmax_FullyMaskedRow(t *testing.T) {
	negInf := float32(math.Inf(-1))
	a := fromSlice(t, []float32{negInf, negInf, negInf}, tensor.Shape{1, 3})
	out := a.Softmax(-1).Data()
	assert.Equal(t, []float32{0, 0, 0}, out)
}

func TestSoftmax_LargeLogitsStable(t *testing.T) {
	a := fromSlice(t, []float32{1000, 1001, 1002}, tensor.Shape{1, 3})
	out := a.Softmax(-1).Data()
	sum := float32(0)
	for _, v := range out {
		require.False(t, math.IsNaN(float64(v)))
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestSumDim_MeanDim(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	sum := a.SumDim(-1, false)
	assert.Equal(t, tensor.Shape{2}, sum.Shape())
	assert.Equal(t, []float32{6, 15}, sum.Data())

	mean := a.MeanDim(-1, true)
	assert.Equal(t, tensor.Shape{2, 1}, mean.Shape())
	assert.Equal(t, []float32{2, 5}, mean.Data())

	sum0 := a.SumDim(0, false)
	assert.Equal(t, tensor.Shape{3}, sum0.Shape())
	assert.Equal(t, []float32{5, 7, 9}, sum0.Data())
}

func TestExpLogRsqrt(t *testing.T) {
	a := fromSlice(t, []float32{0, 1}, tensor.Shape{2})
	exp := a.Exp().Data()
	assert.InDelta(t, 1.0, float64(exp[0]), 1e-6)
	assert.InDelta(t, math.E, float64(exp[1]), 1e-5)

	b := fromSlice(t, []float32{1, float32(math.E)}, tensor.Shape{2})
	lg := b.Log().Data()
	assert.InDelta(t, 0.0, float64(lg[0]), 1e-6)
	assert.InDelta(t, 1.0, float64(lg[1]), 1e-5)

	c := fromSlice(t, []float32{4, 16}, tensor.Shape{2})
	rs := c.Rsqrt().Data()
	assert.InDelta(t, 0.5, float64(rs[0]), 1e-6)
	assert.InDelta(t, 0.25, float64(rs[1]), 1e-6)
}

func TestGelu_ExactValues(t *testing.T) {
	backend := New()
	x := fromSlice(t, []float32{-2, -1, 0, 1, 2}, tensor.Shape{5})
	out := tensor.New[float32](backend.Gelu(x.Raw()), backend).Data()

	// gelu(x) = 0.5 * x * (1 + erf(x / sqrt(2)))
	expected := []float64{-0.04550026, -0.15865529, 0, 0.84134471, 1.95449974}
	for i, want := range expected {
		assert.InDelta(t, want, float64(out[i]), 1e-5)
	}
}

func TestEmbedding_Gather(t *testing.T) {
	backend := New()
	weight := fromSlice(t, []float32{
		0, 0, // row 0
		1, 1, // row 1
		2, 2, // row 2
	}, tensor.Shape{3, 2})
	indices, err := tensor.FromSlice([]int32{2, 0, 1, 1}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	out := weight.Embedding(indices)
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{2, 2, 0, 0, 1, 1, 1, 1}, out.Data())
}

func TestEmbedding_OutOfRange(t *testing.T) {
	backend := New()
	weight := fromSlice(t, []float32{0, 0, 1, 1}, tensor.Shape{2, 2})
	indices, err := tensor.FromSlice([]int32{5}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	assert.Panics(t, func() { weight.Embedding(indices) })
}
