package trainer

import "context"

import "github.com/pkg/errors"

import "github.com/neurlang/batchtrainer/batch"
import "github.com/neurlang/batchtrainer/confusion"
import "github.com/neurlang/batchtrainer/datasets"

// Evaluate runs every record of src through p in batches of batchSize and
// adds the predictions to m. The short final batch is scored too, only its
// written rows count. It returns the number of samples scored.
func Evaluate(ctx context.Context, src datasets.Source, p Predictor, m *confusion.Matrix,
	a batch.Assembler, batchSize int, sampleShape ...int) (int, error) {

	input, err := batch.New(batchSize, sampleShape...)
	if err != nil {
		return 0, errors.Wrap(err, "input buffer")
	}
	labels, err := batch.New(batchSize, 1)
	if err != nil {
		return 0, errors.Wrap(err, "label buffer")
	}
	seq, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer seq.Close()

	var scored int
	for {
		if err := ctx.Err(); err != nil {
			return scored, err
		}
		fill, err := a.Fill(input, labels, seq, batchSize)
		if err != nil {
			return scored, errors.Wrapf(err, "sample %d", scored)
		}
		if fill.Written == 0 {
			return scored, nil
		}
		output, err := p.Predict(input)
		if err != nil {
			return scored, errors.Wrap(err, "predict")
		}
		if err := batch.CheckOutput(output, input.Rows(), m.Classes()); err != nil {
			return scored, err
		}
		predictions, err := m.PredictionsFrom(output)
		if err != nil {
			return scored, err
		}
		if err := m.AddSamples(predictions[:fill.Written], fill.Labels); err != nil {
			return scored, err
		}
		scored += fill.Written
		if fill.Short(batchSize) {
			return scored, nil
		}
	}
}
