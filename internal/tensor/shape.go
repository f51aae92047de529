// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "fmt"

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 8, 64} is a 3D tensor with dimensions 2×8×64.
type Shape []int

// NumElements returns the total number of elements for this shape.
// A zero-dimensional shape has one element (a scalar).
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Equal reports whether two shapes have identical dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// ComputeStrides returns row-major strides for the shape.
// For Shape{2, 3, 4} the strides are [12, 4, 1].
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// String returns a human-readable form like [2 8 64].
func (s Shape) String() string {
	return fmt.Sprintf("%v", []int(s))
}

// BroadcastShapes computes the NumPy-style broadcast result of two shapes.
// Dimensions are aligned from the right; a dimension broadcasts when it is 1
// or matches its counterpart. The second return value reports whether any
// broadcasting is actually required.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	ndim := len(a)
	if len(b) > ndim {
		ndim = len(b)
	}
	out := make(Shape, ndim)
	needsBroadcast := len(a) != len(b)

	for i := 0; i < ndim; i++ {
		da, db := 1, 1
		if idx := len(a) - ndim + i; idx >= 0 {
			da = a[idx]
		}
		if idx := len(b) - ndim + i; idx >= 0 {
			db = b[idx]
		}
		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
			needsBroadcast = true
		case db == 1:
			out[i] = da
			needsBroadcast = true
		default:
			return nil, false, fmt.Errorf("shapes %v and %v are not broadcastable", a, b)
		}
	}
	return out, needsBroadcast, nil
}
