// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the public API for the pure-Go CPU backend.
package cpu

import (
	internalcpu "github.com/loom-ml/loom/internal/backend/cpu"
	"github.com/loom-ml/loom/tensor"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}
