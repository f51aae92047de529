// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"fmt"
	"unsafe"
)

// Device represents where a tensor's storage lives.
//
// CPU tensors are backed by host memory. Meta tensors are deferred
// placeholders: they carry shape and dtype but no storage, and must be
// materialized before any compute touches them. An external orchestrator
// sequences the materialize-then-initialize protocol.
type Device int

// Supported devices.
const (
	CPU Device = iota
	Meta
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "cpu"
	case Meta:
		return "meta"
	default:
		return "unknown"
	}
}

// ParseDevice parses a device placement string ("cpu" or "meta").
func ParseDevice(s string) (Device, error) {
	switch s {
	case "cpu", "":
		return CPU, nil
	case "meta":
		return Meta, nil
	default:
		return CPU, fmt.Errorf("unknown device %q (want \"cpu\" or \"meta\")", s)
	}
}

// RawTensor is the untyped tensor representation: a flat byte buffer plus
// shape, dtype, and device. Typed access goes through the As* views.
type RawTensor struct {
	data   []byte
	shape  Shape
	dtype  DataType
	device Device
}

// NewRaw allocates a raw tensor. On the meta device no storage is
// allocated; the tensor is a placeholder until Materialize is called.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("invalid shape %v: negative dimension", shape)
		}
	}
	rt := &RawTensor{
		shape:  shape.Clone(),
		dtype:  dtype,
		device: device,
	}
	if device != Meta {
		rt.data = make([]byte, shape.NumElements()*dtype.Size())
	}
	return rt, nil
}

// Shape returns the tensor dimensions.
func (rt *RawTensor) Shape() Shape {
	return rt.shape
}

// DType returns the element type.
func (rt *RawTensor) DType() DataType {
	return rt.dtype
}

// Device returns where the storage lives.
func (rt *RawTensor) Device() Device {
	return rt.device
}

// NumElements returns the total element count.
func (rt *RawTensor) NumElements() int {
	return rt.shape.NumElements()
}

// IsMeta reports whether this tensor is an unmaterialized placeholder.
func (rt *RawTensor) IsMeta() bool {
	return rt.device == Meta
}

// Materialize allocates zeroed CPU storage for a meta placeholder.
// Materializing a tensor twice is a no-op; the initialization policy that
// fills the storage must still run exactly once, which is the caller's
// responsibility to sequence.
func (rt *RawTensor) Materialize() {
	if rt.device != Meta {
		return
	}
	rt.data = make([]byte, rt.shape.NumElements()*rt.dtype.Size())
	rt.device = CPU
}

// WithShape returns a view sharing this tensor's storage under a new shape
// with the same element count.
func (rt *RawTensor) WithShape(shape Shape) *RawTensor {
	if shape.NumElements() != rt.NumElements() {
		panic(fmt.Sprintf("tensor: cannot view shape %v as %v: element count differs", rt.shape, shape))
	}
	return &RawTensor{
		data:   rt.data,
		shape:  shape.Clone(),
		dtype:  rt.dtype,
		device: rt.device,
	}
}

func (rt *RawTensor) storage() []byte {
	if rt.device == Meta {
		panic("tensor: meta tensor has no storage; Materialize it first")
	}
	return rt.data
}

// AsFloat32 returns a typed view of the storage. Zero-copy: writes through
// the returned slice modify the tensor.
func (rt *RawTensor) AsFloat32() []float32 {
	if rt.dtype != Float32 {
		panic(fmt.Sprintf("tensor: AsFloat32 on %s tensor", rt.dtype))
	}
	data := rt.storage()
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), rt.NumElements())
}

// AsInt32 returns a typed view of the storage.
func (rt *RawTensor) AsInt32() []int32 {
	if rt.dtype != Int32 {
		panic(fmt.Sprintf("tensor: AsInt32 on %s tensor", rt.dtype))
	}
	data := rt.storage()
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), rt.NumElements())
}

// AsBool returns a typed view of the storage.
func (rt *RawTensor) AsBool() []bool {
	if rt.dtype != Bool {
		panic(fmt.Sprintf("tensor: AsBool on %s tensor", rt.dtype))
	}
	data := rt.storage()
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*bool)(unsafe.Pointer(&data[0])), rt.NumElements())
}
