// Package services provides the stateless domain services of the freight
// engine. They operate on values from the model packages and never touch
// storage or carrier APIs.
//
// The package includes:
//   - DimensionResolver: product master data to line items, with fallbacks
//   - ContainerPicker: best-fit container for one parcel, graceful FitError
//   - Allocator: cartonisation of many lines into boxes bound to containers
//   - ParcelNormalizer and CatalogEstimator: caller parcel repair and the
//     catalog price baseline used when carriers cannot quote
//   - RateSelector: sorting, SLA-aware choice and catalog/live reconciliation
package services
