// Package repository contains the data access layer, separated from
// HTTP handlers. Each repository owns one table family and exposes
// sentinel not-found errors so handlers can translate failures into
// HTTP responses with errors.Is comparisons. Methods that take part
// in a validate-then-apply flow come in ...Tx variants operating on a
// caller-owned transaction.
package repository
