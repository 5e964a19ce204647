package trainer

import "github.com/neurlang/batchtrainer/batch"

// Trainer performs one training step on a minibatch. It reads input and
// labels under their read locks and returns a new output buffer of
// input.Rows() rows by class count, holding the predicted class scores.
type Trainer interface {
	TrainStep(input, labels *batch.Buffer) (*batch.Buffer, error)
}

// TrainerFunc adapts a function to Trainer
type TrainerFunc func(input, labels *batch.Buffer) (*batch.Buffer, error)

func (f TrainerFunc) TrainStep(input, labels *batch.Buffer) (*batch.Buffer, error) {
	return f(input, labels)
}

// Predictor computes class scores without updating the model
type Predictor interface {
	Predict(input *batch.Buffer) (*batch.Buffer, error)
}

// LossReporter is implemented by trainers that track their training loss
type LossReporter interface {
	LastLoss() float64
}
