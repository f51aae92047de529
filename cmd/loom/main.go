// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package main provides the Loom CLI.
package main

import (
	"fmt"
	"os"

	"github.com/loom-ml/loom/backend/cpu"
	"github.com/loom-ml/loom/model"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Loom %s\n", version)
			return
		case "describe":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "usage: loom describe <config.yaml>")
				os.Exit(1)
			}
			if err := describe(os.Args[2]); err != nil {
				fmt.Fprintf(os.Stderr, "loom: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("Loom - Transformer Model Definitions for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version               Show version")
	fmt.Println("  describe <config>     Summarize the model a YAML config describes")
}

// describe builds the configured model on the meta device, so even large
// configs are summarized without allocating their parameters.
func describe(path string) error {
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return err
	}
	cfg.Device = "meta"

	gpt, err := model.NewGPT(cfg, cpu.New())
	if err != nil {
		return err
	}

	fmt.Printf("vocab_size:  %d\n", cfg.VocabSize)
	fmt.Printf("d_model:     %d\n", cfg.DModel)
	fmt.Printf("n_heads:     %d\n", cfg.NHeads)
	fmt.Printf("n_layers:    %d\n", cfg.NLayers)
	fmt.Printf("max_seq_len: %d\n", cfg.MaxSeqLen)
	fmt.Printf("attn_impl:   %s\n", cfg.AttnImpl)
	fmt.Printf("parameters:  %d\n", gpt.NumParams())
	fmt.Printf("blocks:      %d (each checkpointable and shard-atomic)\n", len(gpt.ShardUnits()))
	return nil
}
