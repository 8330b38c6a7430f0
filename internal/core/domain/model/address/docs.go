// Package address normalizes delivery addresses into the shape carrier APIs
// accept and reports every adjustment as a warning.
package address
