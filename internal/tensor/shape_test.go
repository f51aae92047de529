// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape_NumElements(t *testing.T) {
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, 0, Shape{2, 0, 4}.NumElements())
}

func TestShape_Equal(t *testing.T) {
	assert.True(t, Shape{2, 3}.Equal(Shape{2, 3}))
	assert.False(t, Shape{2, 3}.Equal(Shape{3, 2}))
	assert.False(t, Shape{2, 3}.Equal(Shape{2, 3, 1}))
}

func TestComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Equal(t, []int{1}, Shape{5}.ComputeStrides())
}

func TestBroadcastShapes_Compatible(t *testing.T) {
	out, needed, err := BroadcastShapes(Shape{2, 1, 4}, Shape{3, 1})
	require.NoError(t, err)
	assert.True(t, needed)
	assert.Equal(t, Shape{2, 3, 4}, out)
}

func TestBroadcastShapes_SameShape(t *testing.T) {
	out, needed, err := BroadcastShapes(Shape{2, 3}, Shape{2, 3})
	require.NoError(t, err)
	assert.False(t, needed)
	assert.Equal(t, Shape{2, 3}, out)
}

func TestBroadcastShapes_Incompatible(t *testing.T) {
	_, _, err := BroadcastShapes(Shape{2, 3}, Shape{2, 4})
	assert.Error(t, err)
}
