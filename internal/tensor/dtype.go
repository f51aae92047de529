// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

// DType is the generic constraint for tensor element types.
// Activations and parameters are float32, token ids int32, masks bool.
type DType interface {
	float32 | int32 | bool
}

// DataType identifies the runtime element type of a RawTensor.
type DataType int

// Supported data types.
const (
	Float32 DataType = iota
	Int32
	Bool
)

// Size returns the element size in bytes.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Bool:
		return 1
	default:
		panic("tensor: unknown data type")
	}
}

// String returns a human-readable type name.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// inferDataType maps a Go element value to its DataType.
func inferDataType(v any) DataType {
	switch v.(type) {
	case float32:
		return Float32
	case int32:
		return Int32
	case bool:
		return Bool
	default:
		panic("tensor: unsupported element type")
	}
}
