// Package graph provides the data model shared by every watermarking package.
//
// This package contains type definitions only. All other internal packages
// import graph; graph imports nothing internal. This keeps the data model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Field values are tagged scalars (Null, String, Int, Float), never any
//   - Identifiers are opaque store-assigned integers with no meaning to the core
//   - Value.Text is the only textual form used for watermark computation
package graph
