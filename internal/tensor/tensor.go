// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the typed tensor layer the model architectures
// are written against: a generic Tensor[T, B] over an untyped RawTensor,
// with all arithmetic delegated to a Backend implementation.
package tensor

import "fmt"

// Tensor is a generic tensor with element type T computed on backend B.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 8, 64}, backend)
//	y := x.Add(x)
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps a RawTensor in a typed tensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromSlice creates a tensor by copying data into freshly allocated storage.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, got %d", shape, shape.NumElements(), len(data))
	}
	var zero T
	raw, err := NewRaw(shape, inferDataType(zero), CPU)
	if err != nil {
		return nil, err
	}
	t := New[T, B](raw, b)
	copy(t.Data(), data)
	return t, nil
}

// Shape returns the tensor's dimensions.
func (t *Tensor[T, B]) Shape() Shape { return t.raw.Shape() }

// DType returns the runtime element type.
func (t *Tensor[T, B]) DType() DataType { return t.raw.DType() }

// Device returns where the storage lives.
func (t *Tensor[T, B]) Device() Device { return t.raw.Device() }

// NumElements returns the total element count.
func (t *Tensor[T, B]) NumElements() int { return t.raw.NumElements() }

// Raw returns the underlying untyped tensor.
func (t *Tensor[T, B]) Raw() *RawTensor { return t.raw }

// Backend returns the compute backend.
func (t *Tensor[T, B]) Backend() B { return t.backend }

// IsMeta reports whether this tensor is an unmaterialized placeholder.
func (t *Tensor[T, B]) IsMeta() bool { return t.raw.IsMeta() }

// Materialize allocates storage for a meta placeholder. No-op otherwise.
func (t *Tensor[T, B]) Materialize() { t.raw.Materialize() }

// Data returns a typed, zero-copy view of the storage.
// Panics on a meta tensor.
func (t *Tensor[T, B]) Data() []T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(t.raw.AsFloat32()).([]T)
	case int32:
		return any(t.raw.AsInt32()).([]T)
	case bool:
		return any(t.raw.AsBool()).([]T)
	default:
		panic("tensor: unsupported element type")
	}
}

// Add returns t + other with broadcasting.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub returns t - other with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul returns the element-wise product with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div returns the element-wise quotient with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// MatMul performs 2D matrix multiplication: [M, K] @ [K, N] -> [M, N].
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// BatchMatMul performs batched matrix multiplication over 3D/4D tensors.
func (t *Tensor[T, B]) BatchMatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.BatchMatMul(t.raw, other.raw), t.backend)
}

// Reshape returns a view with the given dimensions.
func (t *Tensor[T, B]) Reshape(dims ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(dims)), t.backend)
}

// Transpose permutes the tensor axes. With no arguments a 2D tensor is
// transposed; otherwise axes is a full permutation, e.g. (0, 2, 1, 3).
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor[T, B]) MulScalar(s T) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, s), t.backend)
}

// AddScalar adds a scalar to every element.
func (t *Tensor[T, B]) AddScalar(s T) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, s), t.backend)
}

// Exp applies the element-wise exponential.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	return New[T, B](t.backend.Exp(t.raw), t.backend)
}

// Log applies the element-wise natural logarithm.
func (t *Tensor[T, B]) Log() *Tensor[T, B] {
	return New[T, B](t.backend.Log(t.raw), t.backend)
}

// Rsqrt applies the element-wise reciprocal square root.
func (t *Tensor[T, B]) Rsqrt() *Tensor[T, B] {
	return New[T, B](t.backend.Rsqrt(t.raw), t.backend)
}

// Softmax computes softmax along dim (negative dims count from the end).
func (t *Tensor[T, B]) Softmax(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Softmax(t.raw, dim), t.backend)
}

// SumDim sums along dim, optionally keeping the reduced dimension.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.SumDim(t.raw, dim, keepDim), t.backend)
}

// MeanDim averages along dim, optionally keeping the reduced dimension.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.MeanDim(t.raw, dim, keepDim), t.backend)
}

// Embedding treats t as a weight table [num, dim] and gathers rows by the
// int32 index tensor, producing [..., dim].
func (t *Tensor[T, B]) Embedding(indices *Tensor[int32, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Embedding(t.raw, indices.raw), t.backend)
}
