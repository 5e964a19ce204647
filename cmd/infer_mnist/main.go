package main

import "context"
import "flag"
import "log"
import "os"

import "github.com/neurlang/batchtrainer/batch"
import "github.com/neurlang/batchtrainer/config"
import "github.com/neurlang/batchtrainer/confusion"
import "github.com/neurlang/batchtrainer/datasets"
import "github.com/neurlang/batchtrainer/datasets/csvset"
import "github.com/neurlang/batchtrainer/datasets/mnist"
import "github.com/neurlang/batchtrainer/net/feedforward"
import "github.com/neurlang/batchtrainer/trainer"

func main() {
	var cfg = config.Default()
	cfg.BatchSize = 100
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if cfg.DstModel == "" {
		log.Fatalf("infer: -dstmodel is required")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("infer: %v", err)
	}
	net, err := feedforward.New(feedforward.Config{
		Arch:         cfg.Model,
		Inputs:       cfg.FeatureCount(),
		Hidden:       cfg.Hidden,
		Classes:      cfg.NumClasses,
		LearningRate: cfg.LearningRate,
		Threads:      cfg.Threads,
	})
	if err != nil {
		log.Fatalf("infer: %v", err)
	}
	if err := net.ReadCompressedWeightsFromFile(cfg.DstModel); err != nil {
		log.Fatalf("infer: weights %s: %v", cfg.DstModel, err)
	}

	var src datasets.Source = csvset.File{Path: cfg.TestSet, FeatureCount: cfg.FeatureCount()}
	if st, err := os.Stat(cfg.TestSet); err == nil && st.IsDir() {
		src = mnist.Infer(cfg.TestSet)
	}

	matrix := confusion.New(cfg.NumClasses)
	n, err := trainer.Evaluate(context.Background(), src, net, matrix,
		batch.Assembler{Scale: 1.0 / 255}, cfg.BatchSize, cfg.SampleShape...)
	if err != nil {
		log.Fatalf("infer: %v", err)
	}
	if _, err := matrix.WriteTo(os.Stdout); err != nil {
		log.Fatalf("infer: %v", err)
	}
	log.Printf("[infer success rate] %.2f %% on %d samples", 100*matrix.Accuracy(), n)
}
