// Package model provides the persisted and transient content types for stencil.
//
// This package contains type definitions and pure helpers only. Every other
// internal package imports model; model imports nothing internal, so it stays
// the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Exactly one section named "general" always exists and is never retired
//   - Section and field parameters are kept as raw template strings (Params);
//     type coercion happens in the directive layer, never here
//   - Special fields (_id, _created_at, _updated_at, _permalink) are
//     synthesized from the record, never stored in Record.Content
package model
