// Package viz renders fit reports in the terminal.
//
// Everything here consumes the raw numbers of an [experiment.Report]; the
// formatting of k and SSE into legend text happens only in this package.
//
//   - [Legend]: one-line label for a scheme result
//   - [Summary]: boxed table of every scheme
//   - [Plot]: asciigraph chart of trajectories against the reference
//   - [Viewer]: Bubble Tea model to flip between schemes interactively
//
// # Key Bindings
//
//	Tab / l  - next scheme
//	S-Tab / h - previous scheme
//	A        - toggle all schemes on one chart
//	Q        - quit
package viz
