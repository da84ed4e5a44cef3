// Package types contains the core value types and interfaces shared across the
// allocation engine: units (debates and panels), allocatable items, conflict
// records, highlight rules, sharding configuration, and wire message shapes.
//
// The package has no dependencies on other packages in this module so that
// internal packages can depend on it without import cycles. The root tabbycat
// package re-exports the commonly used definitions via type aliases.
package types
