package main

import "context"
import "flag"
import "log"
import "os"
import "os/signal"
import "syscall"

import "github.com/pkg/errors"

import "github.com/neurlang/batchtrainer/batch"
import "github.com/neurlang/batchtrainer/config"
import "github.com/neurlang/batchtrainer/confusion"
import "github.com/neurlang/batchtrainer/datasets"
import "github.com/neurlang/batchtrainer/datasets/csvset"
import "github.com/neurlang/batchtrainer/datasets/mnist"
import "github.com/neurlang/batchtrainer/device"
import "github.com/neurlang/batchtrainer/net/feedforward"
import "github.com/neurlang/batchtrainer/trainer"

func main() {
	var cfg = config.Default()
	cfg.RegisterFlags(flag.CommandLine)
	configPath := flag.String("config", "", "key: value config file, flags override it")
	pgo := flag.Bool("pgo", false, "write a cpu profile to default.pgo")
	flag.Parse()

	if *configPath != "" {
		loaded, err := config.Load(*configPath, config.Default())
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		if err := loaded.Overlay(flag.CommandLine); err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}

	err := run(cfg, *pgo)
	if errors.Is(err, context.Canceled) {
		log.Printf("interrupted")
		os.Exit(130)
	}
	if err != nil {
		log.Fatalf("train: %v", err)
	}
}

// trainSet opens the configured training data and counts it when the
// dataset size is not given
func trainSet(cfg config.Config) (datasets.Source, int, error) {
	var size = cfg.DatasetSize
	st, err := os.Stat(cfg.TrainSet)
	if err != nil {
		return nil, 0, err
	}
	if st.IsDir() {
		src := mnist.Train(cfg.TrainSet)
		if size == 0 {
			size, err = datasets.Count(src)
		}
		return src, size, err
	}
	src := csvset.File{Path: cfg.TrainSet, FeatureCount: cfg.FeatureCount()}
	if size == 0 {
		size, err = csvset.Count(cfg.TrainSet)
	}
	return src, size, err
}

func run(cfg config.Config, pgo bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	info := device.Describe()
	log.Printf("device %s", info)
	if cfg.Threads == 0 {
		cfg.Threads = info.Threads()
	}
	log.Printf("config %s", cfg)

	src, size, err := trainSet(cfg)
	if err != nil {
		return errors.Wrapf(err, "trainset %s", cfg.TrainSet)
	}
	tail, err := trainer.ParseTail(cfg.Tail)
	if err != nil {
		return err
	}

	net, err := feedforward.New(feedforward.Config{
		Arch:         cfg.Model,
		Inputs:       cfg.FeatureCount(),
		Hidden:       cfg.Hidden,
		Classes:      cfg.NumClasses,
		LearningRate: cfg.LearningRate,
		Momentum:     cfg.Momentum,
		Threads:      cfg.Threads,
		Seed:         cfg.Seed,
	})
	if err != nil {
		return err
	}
	trainer.Resume(net, cfg.Resume, cfg.DstModel)

	matrix := confusion.New(cfg.NumClasses)
	matrix.SetCapacity(cfg.Capacity)

	if pgo {
		defer profile()()
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := trainer.Loop{
		Source:      src,
		Trainer:     net,
		Matrix:      matrix,
		Assembler:   batch.Assembler{Scale: 1.0 / 255},
		BatchSize:   cfg.BatchSize,
		SampleShape: cfg.SampleShape,
		NumClasses:  cfg.NumClasses,
		DatasetSize: size,
		Epochs:      cfg.Epochs,
		Tail:        tail,
	}
	summary, err := loop.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if serr := trainer.Save(net, cfg.DstModel); serr != nil {
		return errors.Wrapf(serr, "save %s", cfg.DstModel)
	}
	if err != nil {
		return err
	}
	if _, err := matrix.WriteTo(os.Stdout); err != nil {
		return err
	}
	log.Printf("run=%s epochs=%d steps=%d accuracy=%.4f avg_data=%.2fms avg_compute=%.2fms",
		summary.RunID, summary.Epochs, summary.Steps, summary.Accuracy, summary.Timing.AvgDataMS, summary.Timing.AvgComputeMS)
	return nil
}
