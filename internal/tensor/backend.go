// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

// Backend defines the compute interface tensor operations are delegated to.
// The model layer never performs arithmetic itself; every kernel (matmul,
// softmax, reductions, embedding lookup) lives behind this interface.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations.
	MatMul(a, b *RawTensor) *RawTensor
	// BatchMatMul performs batched matrix multiplication for 3D/4D tensors.
	// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
	// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations.
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor

	// Element-wise math.
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Rsqrt(x *RawTensor) *RawTensor

	// Softmax along a dimension (negative dims count from the end).
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reductions.
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Embedding looks up rows of weight [num, dim] by int32 indices [...],
	// producing [..., dim].
	Embedding(weight, indices *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
