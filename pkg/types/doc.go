// Package types defines the shared vocabulary of the freeform virtual
// schema: the StrNum scalar variant, the structured Select query form,
// identifier validation, and the error taxonomy. It has no dependency
// on the storage engine, so both the storage layer and callers consume
// it freely.
package types
