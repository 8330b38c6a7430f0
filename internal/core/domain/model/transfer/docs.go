// Package transfer is the read model of an inventory transfer: origin outlet,
// addresses and the product lines to ship.
package transfer
