// Package allocation holds the cartonisation model: resolved order lines
// (LineItem), the product master data they are resolved from, and the Box
// accumulator the allocator fills.
//
// Box totals are derived, never assigned. Adding a line is the only way to
// change a box's weight, volume, item count or handling flags, and flags are
// never cleared once set.
package allocation
