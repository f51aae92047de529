// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "fmt"

// Zeros creates a zero-filled tensor on the backend's device.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var zero T
	raw, err := NewRaw(shape, inferDataType(zero), CPU)
	if err != nil {
		panic(fmt.Sprintf("tensor: %v", err))
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var one T
	switch any(one).(type) {
	case float32:
		return Full[T, B](shape, any(float32(1)).(T), b)
	case int32:
		return Full[T, B](shape, any(int32(1)).(T), b)
	case bool:
		return Full[T, B](shape, any(true).(T), b)
	default:
		panic("tensor: unsupported element type")
	}
}

// Full creates a tensor with every element set to value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Arange creates a 1D int32 tensor with values [0, n).
func Arange[B Backend](n int, b B) *Tensor[int32, B] {
	t := Zeros[int32, B](Shape{n}, b)
	data := t.Data()
	for i := range data {
		data[i] = int32(i)
	}
	return t
}

// Empty creates an uninitialized tensor on the given device. On the meta
// device this is a storage-less placeholder; on CPU the storage is zeroed.
// The caller owns filling in real values; see the model init policy.
func Empty[T DType, B Backend](shape Shape, b B, device Device) *Tensor[T, B] {
	var zero T
	raw, err := NewRaw(shape, inferDataType(zero), device)
	if err != nil {
		panic(fmt.Sprintf("tensor: %v", err))
	}
	return New[T, B](raw, b)
}
