// Package layout assigns positions to graph nodes.
//
// Two layouts are available:
//
//   - [ModeCircular] places node i of n at angle 2πi/n on a circle
//     (center 0.5, scale 1, the graphology defaults). See [Circular].
//   - [ModeForceAtlas] runs ForceAtlas2 iterations, either synchronously with
//     [Run] or continuously in the background with a [Worker].
//
// # Controller
//
// A [Controller] drives the layout of a graph that is being displayed. Every
// mode change first tears down: pending timers are cancelled and the worker
// is stopped. Then, after a short pre-delay:
//
//   - circular: the worker is stopped and circular positions are assigned;
//   - forceatlas: circular positions are assigned as a starting point and the
//     worker is started after a further start delay.
//
// Positions are written under the graph's lock, so renderers may snapshot the
// graph while the worker is running.
package layout
