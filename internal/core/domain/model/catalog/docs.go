// Package catalog models the read-only pricing catalog: carriers and the
// containers (bags, boxes, pallets, document envelopes) they sell, together
// with the volumetric weight conventions used to bill bulky parcels.
package catalog
