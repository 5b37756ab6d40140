// Package http implements the REST surface: upload submission, job status
// polling, and liveness. Upload requests are validated synchronously and the
// response never waits on the processing pipeline.
package http
