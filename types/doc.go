// Package types defines the shared data model of the segment layer:
// external point identifiers, dense internal offsets, payload values,
// filters, and search results.
package types
