// Package kernel holds the value objects shared by every freight aggregate:
// UUID identifiers and millimetre Dimensions.
//
// Both are immutable. Dimensions treats a zero axis as unknown, which is how
// product master data without measurements flows through the allocator and
// the container picker.
package kernel
