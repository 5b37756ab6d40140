// Package ws streams job status transitions to connected clients over
// WebSocket, so a UI can render progress without polling the status
// endpoint. Each stored transition is pushed as one JSON event; slow
// clients have events dropped rather than backpressure the pipeline.
package ws
