// Package generation defines the boundary for deriving structured edit
// plans from free-text render instructions. Implementations live under
// internal/platform; the queue and executor only see the Planner
// interface, so swapping the backing model requires no core changes.
package generation
