// Package rate holds carrier quotes and the vocabulary used to compare and
// reconcile them with the pricing catalog.
package rate
