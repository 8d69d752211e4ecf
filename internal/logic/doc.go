// Package logic defines the many-sorted first-order terms the encoder
// produces and the SMT-LIB2 text they render to.
//
// Terms are immutable once built. The New* constructors fold boolean
// constants and flatten nested connectives so rendered scripts stay
// small; the struct literals can still be used directly when an exact
// shape is wanted (tests, golden output).
package logic
