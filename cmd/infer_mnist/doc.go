// Package main provides a demo program for running inference with a trained MNIST digit
// classifier. It loads the weights written by train_mnist, scores the test set and
// prints the confusion table with per class precision and recall.
package main
