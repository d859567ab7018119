// Package sensor is the control facade between a frontend (scripting
// binding, remote control plane) and the image sensor driver.
//
// # Philosophy
//
// "Validate at the facade, execute at the driver."
//
// The Controller turns high-level intent into validated, device-ready
// parameters: crop requests are negotiated against the native frame
// geometry, user-facing units are coerced to device units, and
// heterogeneous hardware controls funnel through one typed ioctl
// registry instead of a combinatorial method surface. The Driver
// behind it performs the actual register work and reports a plain
// integer status per operation.
//
// # Error model
//
// Shape errors (ErrArgumentShape), domain errors (ErrInvalidArgument)
// and geometry failures are raised before any driver call. A nonzero
// driver status becomes a DeviceError carrying the opaque code. All
// failures are terminal for the call: nothing is retried internally
// and there is no partial success.
//
// # Concurrency
//
// Operations are synchronous on the caller's goroutine. The two
// callback slots (vsync, frame-ready) each hold at most one handler;
// re-registration replaces it. Handlers run in the driver's
// hardware-event context and must be non-blocking and non-reentrant.
package sensor
