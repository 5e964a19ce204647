// Package main provides a demo program for training a handwritten digit classifier on
// the MNIST dataset. It streams labeled records from a CSV file or the MNIST idx files,
// trains the reference feedforward network one minibatch at a time and prints the
// running accuracy after every step, followed by the final confusion table.
package main
