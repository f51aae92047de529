// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/loom-ml/loom/internal/tensor"
)

// ParamKind classifies a parameter for the initialization policy.
// It is set once at construction by the layer that owns the parameter.
type ParamKind int

// Parameter kinds.
const (
	// KindProjection is a linear projection weight.
	KindProjection ParamKind = iota
	// KindBias is a linear projection bias.
	KindBias
	// KindEmbedding is an embedding table weight.
	KindEmbedding
	// KindNormScale is a normalization scale (gamma).
	KindNormScale
	// KindNormShift is a normalization shift (beta).
	KindNormShift
)

// String returns a human-readable kind name.
func (k ParamKind) String() string {
	switch k {
	case KindProjection:
		return "projection"
	case KindBias:
		return "bias"
	case KindEmbedding:
		return "embedding"
	case KindNormScale:
		return "norm_scale"
	case KindNormShift:
		return "norm_shift"
	default:
		return "unknown"
	}
}

// Parameter is a trainable tensor together with the descriptor fields the
// initialization policy reads: its kind and whether it is the output
// projection of a residual branch.
//
// The residual flag is an explicit field populated at construction, not a
// dynamically attached marker: residual-branch weights (attention output
// projection, feed-forward down-projection) are initialized with a smaller
// standard deviation to keep activation variance bounded across depth.
type Parameter[B tensor.Backend] struct {
	name     string
	tensor   *tensor.Tensor[float32, B]
	kind     ParamKind
	residual bool
}

// NewParameter creates a parameter wrapping the given tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B], kind ParamKind) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
		kind:   kind,
	}
}

// Name returns the parameter name (e.g. "wo.weight").
func (p *Parameter[B]) Name() string { return p.name }

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] { return p.tensor }

// Kind returns the parameter's classification for initialization.
func (p *Parameter[B]) Kind() ParamKind { return p.kind }

// Residual reports whether this is a residual-branch output projection.
func (p *Parameter[B]) Residual() bool { return p.residual }

// MarkResidual tags this parameter as a residual-branch output projection.
// Called once, at construction, by the layer that owns the residual branch.
func (p *Parameter[B]) MarkResidual() { p.residual = true }
