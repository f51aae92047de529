// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import "math"

// crossEntropyLoss is the mean negative log-likelihood over all positions
// whose target is not IgnoreIndex. Logits are flattened [n, numClasses]
// row-major. Stabilized with the log-sum-exp max-subtract so large logits
// never overflow.
//
// A batch with no real targets yields zero loss rather than 0/0.
func crossEntropyLoss(logits []float32, numClasses int, targets []int32) float64 {
	sum := 0.0
	count := 0
	for i, target := range targets {
		if target == IgnoreIndex {
			continue
		}
		row := logits[i*numClasses : (i+1)*numClasses]
		maxVal := float64(row[0])
		for _, v := range row[1:] {
			if float64(v) > maxVal {
				maxVal = float64(v)
			}
		}
		sumExp := 0.0
		for _, v := range row {
			sumExp += math.Exp(float64(v) - maxVal)
		}
		sum += maxVal + math.Log(sumExp) - float64(row[target])
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
