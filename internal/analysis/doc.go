// Package analysis implements the analysis-point expansion pass and
// the loop analyses built on top of it.
//
// An analysis point names a connection in a block diagram where the
// feedback loop may be broken. [Expand] walks the system hierarchy,
// qualifies every point and every injected variable with its enclosing
// namespace, rewrites matched points through a replacement callback,
// and resolves every unmatched point to the plain identity tie so the
// loop stays intact wherever nothing is injected.
//
// The entry points compose expansion with the linearization driver:
//
//   - [GetSensitivity]: disturbance injected after the point, measured
//     just downstream.
//   - [GetCompSensitivity]: same disturbance, measured just upstream.
//   - [GetLoopTransfer]: loop broken at the point, transfer from just
//     downstream of the break back to just upstream.
//   - [OpenLoop]: the broken-loop system itself, no linearization.
//   - [Linearize]: transfer between two distinct named points.
//
// Sign convention: the loop transfer is the product of the loop
// exactly as written. A negative-feedback loop built with an explicit
// -1 gain therefore yields L = -P*C; no negation is applied anywhere
// in this package.
package analysis
