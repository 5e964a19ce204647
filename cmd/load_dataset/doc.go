// Package main downloads the MNIST dataset in CSV form into the assets
// directory used by train_mnist and infer_mnist.
package main
