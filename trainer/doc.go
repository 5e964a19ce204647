// Package trainer drives minibatch training: it assembles batches from a
// dataset, hands them to a Trainer one step at a time and keeps the running
// confusion matrix of the Trainer's predictions.
package trainer
