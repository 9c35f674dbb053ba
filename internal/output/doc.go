// Package output decides which outputs get a wallpaper and drives each
// bound output through its lifecycle:
//
//	Discovered -> Filtered
//	Discovered -> Bound -> Configured -> Rendering -> Destroyed
//
// An output is Filtered when its name does not match the configured
// filter, or when single-output policy already has a bound output. When a
// bound output goes away under single-output policy, the remaining known
// outputs are evaluated again in discovery order.
package output
