// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensor operations.
//
// The package re-exports the core types for type-safe tensors:
//   - Tensor[T, B]: high-level generic tensor
//   - RawTensor: untyped storage for backend implementations
//   - Backend: interface for device-specific compute
//   - Shape, DataType, Device: core definitions
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
package tensor

import (
	"github.com/loom-ml/loom/internal/tensor"
)

// DType is the constraint for tensor element types.
type DType = tensor.DType

// DataType identifies the element type of a RawTensor at runtime.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Int32   DataType = tensor.Int32
	Bool    DataType = tensor.Bool
)

// Device identifies where tensor storage lives. The meta device holds
// shape and dtype only, with no storage, for deferred materialization.
type Device = tensor.Device

// Device constants.
const (
	CPU  Device = tensor.CPU
	Meta Device = tensor.Meta
)

// ParseDevice maps a device name ("cpu", "meta") to a Device.
func ParseDevice(name string) (Device, error) { return tensor.ParseDevice(name) }

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// BroadcastShapes computes the broadcast result shape of a and b under
// right-aligned NumPy rules.
func BroadcastShapes(a, b Shape) (Shape, bool, error) { return tensor.BroadcastShapes(a, b) }

// Backend is the compute interface a device implementation provides.
type Backend = tensor.Backend

// RawTensor is the untyped storage and shape a Backend operates on.
type RawTensor = tensor.RawTensor

// Tensor is a generic type-safe tensor over a backend.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// New wraps a RawTensor with type information.
func New[T DType, B Backend](raw *RawTensor, backend B) *Tensor[T, B] {
	return tensor.New[T](raw, backend)
}

// FromSlice creates a tensor from a flat slice with the given shape.
func FromSlice[T DType, B Backend](data []T, shape Shape, backend B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, backend)
}

// Zeros creates a zero-filled tensor.
func Zeros[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	return tensor.Zeros[T](shape, backend)
}

// Ones creates a one-filled tensor.
func Ones[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	return tensor.Ones[T](shape, backend)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, backend B) *Tensor[T, B] {
	return tensor.Full(shape, value, backend)
}

// Arange creates a 1-D int32 tensor holding 0..n-1.
func Arange[B Backend](n int, backend B) *Tensor[int32, B] {
	return tensor.Arange(n, backend)
}

// Empty creates an uninitialized tensor on the backend's device; on the
// meta device it is a shape-only placeholder.
func Empty[T DType, B Backend](shape Shape, backend B, device Device) *Tensor[T, B] {
	return tensor.Empty[T](shape, backend, device)
}
