/*
Package pipeline runs the simulated processing behind every accepted upload.

# Overview

Each job passes through two simulated stages with randomized timing:

	optimize (500–1500ms)
	   ↓
	thumbnail (300–800ms)

followed by a randomized outcome: a size reduction drawn from 20–50% of the
original file size and a thumbnail that succeeds with probability 0.95.
Non-image jobs skip the stages but are still finalized.

The Scheduler decouples submission from execution: the upload handler's
Submit call returns immediately while a bounded worker pool executes the run.
Every run reaches a terminal state — faults (including panics) finalize the
job as failed rather than propagate.

Timing and outcomes are drawn through the Simulation interface so tests can
substitute deterministic values and run with zero sleep.
*/
package pipeline
