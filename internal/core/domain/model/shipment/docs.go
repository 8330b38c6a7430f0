// Package shipment contains the Shipment aggregate with its parcels and
// labels.
//
// A shipment moves Packed → Labelled → Cancelled → Packed. Labels are
// append-only: replacing or cancelling one sets its deletion marker, removes
// the parcels and clears the shipment's tracking fields in a single change
// of the aggregate, which the repository persists in one transaction.
package shipment
