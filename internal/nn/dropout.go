// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"fmt"
	"math/rand"

	"github.com/loom-ml/loom/internal/tensor"
)

// dropoutRand is the shared generator for dropout masks. Seedable for
// reproducible training runs.
var dropoutRand = rand.New(rand.NewSource(1))

// SetDropoutSeed reseeds the dropout mask generator.
func SetDropoutSeed(seed int64) {
	dropoutRand = rand.New(rand.NewSource(seed))
}

// Dropout zeroes elements with probability P during training and rescales
// the survivors by 1/(1-P) (inverted dropout), so evaluation needs no
// compensation. In evaluation mode the input passes through unchanged.
//
// The train/eval distinction is an explicit, observable mode switch: the
// owning model toggles it through SetTraining.
type Dropout[B tensor.Backend] struct {
	P        float32
	training bool
}

// NewDropout creates a Dropout layer in evaluation mode.
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: probability must be in [0, 1), got %v", p))
	}
	return &Dropout[B]{P: p}
}

// SetTraining switches between training (dropout active) and evaluation
// (identity) mode.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Training reports whether dropout is active.
func (d *Dropout[B]) Training() bool {
	return d.training
}

// Forward applies dropout. Evaluation mode and P == 0 are identity.
func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.P == 0 {
		return x
	}
	out := tensor.Zeros[float32](x.Shape(), x.Backend())
	in, data := x.Data(), out.Data()
	scale := 1.0 / (1.0 - d.P)
	for i := range in {
		if dropoutRand.Float32() >= d.P {
			data[i] = in[i] * scale
		}
	}
	return out
}

// Parameters returns an empty slice: dropout has no trainable parameters.
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}
