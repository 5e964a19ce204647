package trainer

import "context"
import "fmt"
import "io"
import "log"
import "os"
import "time"

import "github.com/google/uuid"
import "github.com/pkg/errors"

import "github.com/neurlang/batchtrainer/batch"
import "github.com/neurlang/batchtrainer/config"
import "github.com/neurlang/batchtrainer/confusion"
import "github.com/neurlang/batchtrainer/datasets"

// Tail decides what happens to the short final batch of an epoch
type Tail int

const (
	// TailSkip ends the epoch without training the short batch
	TailSkip Tail = iota

	// TailPad trains the zero padded batch and scores only the written rows
	TailPad
)

// ParseTail maps the config names to a Tail
func ParseTail(name string) (Tail, error) {
	switch name {
	case config.TailSkip, "":
		return TailSkip, nil
	case config.TailPad:
		return TailPad, nil
	}
	return TailSkip, errors.Wrapf(config.ErrConfiguration, "unknown tail policy %q", name)
}

// Loop ties the dataset, the Trainer and the confusion matrix together
type Loop struct {
	Source    datasets.Source
	Trainer   Trainer
	Matrix    *confusion.Matrix
	Assembler batch.Assembler

	BatchSize   int
	SampleShape []int
	NumClasses  int

	// DatasetSize is the number of records per epoch. The loop runs
	// DatasetSize / BatchSize steps per epoch.
	DatasetSize int
	Epochs      int
	Tail        Tail

	// Out receives one progress line per step, os.Stdout when nil
	Out io.Writer

	// RunID tags the log lines of this run, generated when empty
	RunID string
}

// Summary describes a finished run
type Summary struct {
	RunID    string
	Epochs   int
	Steps    int
	Samples  uint64
	Accuracy float64
	Timing   Snapshot
}

func (l *Loop) validate() error {
	if l.Source == nil || l.Trainer == nil || l.Matrix == nil {
		return errors.Wrap(config.ErrConfiguration, "loop needs a source, a trainer and a confusion matrix")
	}
	if l.BatchSize <= 0 {
		return errors.Wrapf(config.ErrConfiguration, "batch size must be > 0 (got %d)", l.BatchSize)
	}
	if l.NumClasses != l.Matrix.Classes() {
		return errors.Wrapf(config.ErrConfiguration, "%d classes but the confusion matrix tracks %d", l.NumClasses, l.Matrix.Classes())
	}
	if l.DatasetSize/l.BatchSize == 0 {
		return errors.Wrapf(config.ErrConfiguration, "dataset size %d holds no full batch of %d", l.DatasetSize, l.BatchSize)
	}
	return nil
}

// Steps is the number of training steps per epoch
func (l *Loop) Steps() int {
	if l.BatchSize <= 0 {
		return 0
	}
	return l.DatasetSize / l.BatchSize
}

// Run executes the training workload. Every error aborts the run: decode
// errors, buffer overflows, shape and length mismatches all mean the data or
// the configuration is broken. Cancelling ctx stops the run between steps.
func (l *Loop) Run(ctx context.Context) (Summary, error) {
	if err := l.validate(); err != nil {
		return Summary{}, err
	}
	if l.RunID == "" {
		l.RunID = uuid.New().String()
	}
	if l.Epochs <= 0 {
		l.Epochs = 1
	}
	var out = l.Out
	if out == nil {
		out = os.Stdout
	}

	input, err := batch.New(l.BatchSize, l.SampleShape...)
	if err != nil {
		return Summary{}, errors.Wrap(err, "input buffer")
	}
	labels, err := batch.New(l.BatchSize, 1)
	if err != nil {
		return Summary{}, errors.Wrap(err, "label buffer")
	}

	var summary = Summary{RunID: l.RunID}
	var window Window
	var steps = l.Steps()
	log.Printf("run=%s steps_per_epoch=%d epochs=%d batch_size=%d", l.RunID, steps, l.Epochs, l.BatchSize)

	for epoch := 1; epoch <= l.Epochs; epoch++ {
		seq, err := l.Source.Open()
		if err != nil {
			return summary, errors.Wrapf(err, "epoch %d", epoch)
		}
		for step := 1; step <= steps; step++ {
			if err := ctx.Err(); err != nil {
				seq.Close()
				l.finish(&summary, &window)
				return summary, err
			}
			trained, short, err := l.step(seq, input, labels, &window, out, epoch, step, steps)
			if err != nil {
				seq.Close()
				return summary, errors.Wrapf(err, "epoch %d step %d", epoch, step)
			}
			if trained {
				summary.Steps++
			}
			if short {
				log.Printf("run=%s epoch=%d ended early at step %d: dataset exhausted", l.RunID, epoch, step)
				break
			}
		}
		seq.Close()
		summary.Epochs++
	}

	l.finish(&summary, &window)
	log.Printf("run=%s done steps=%d samples=%d accuracy=%.4f images_per_sec=%.1f",
		l.RunID, summary.Steps, summary.Samples, summary.Accuracy, summary.Timing.ImagesPerSec)
	return summary, nil
}

// finish copies the matrix totals and the timing window into summary
func (l *Loop) finish(summary *Summary, window *Window) {
	summary.Samples = l.Matrix.Total()
	summary.Accuracy = l.Matrix.Accuracy()
	summary.Timing = window.Snapshot()
}

// step runs one minibatch through the trainer. short reports that the epoch
// data ran out during this step.
func (l *Loop) step(seq datasets.Sequence, input, labels *batch.Buffer, window *Window, out io.Writer,
	epoch, step, steps int) (trained, short bool, err error) {

	startData := time.Now()
	fill, err := l.Assembler.Fill(input, labels, seq, l.BatchSize)
	if err != nil {
		return false, false, err
	}
	dataTime := time.Since(startData)
	short = fill.Short(l.BatchSize)
	if short && (fill.Written == 0 || l.Tail == TailSkip) {
		return false, true, nil
	}

	startCompute := time.Now()
	output, err := l.Trainer.TrainStep(input, labels)
	if err != nil {
		return false, short, errors.Wrap(err, "train step")
	}
	computeTime := time.Since(startCompute)
	if err := batch.CheckOutput(output, input.Rows(), l.NumClasses); err != nil {
		return true, short, err
	}

	predictions, err := l.Matrix.PredictionsFrom(output)
	if err != nil {
		return true, short, err
	}
	if err := l.Matrix.AddSamples(predictions[:fill.Written], fill.Labels); err != nil {
		return true, short, err
	}
	window.Record(fill.Written, dataTime, computeTime)

	last, _ := l.Matrix.LastSample()
	line := fmt.Sprintf("epoch %d step %d/%d | Last sample: %t | Accuracy %.4f", epoch, step, steps, last, l.Matrix.Accuracy())
	if lr, ok := l.Trainer.(LossReporter); ok {
		line += fmt.Sprintf(" | loss %.4f", lr.LastLoss())
	}
	line += fmt.Sprintf(" | data %.2fms compute %.2fms",
		dataTime.Seconds()*1000, computeTime.Seconds()*1000)
	_, err = fmt.Fprintln(out, line)
	return true, short, err
}
