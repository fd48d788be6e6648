// Package multipart manages the lifecycle of one multipart upload.
//
// A Session moves through Uninitiated, Initiated, PartsAssembled and finally
// Completed or Aborted. Parts are recorded with the ETag the store returned
// and must be added with strictly increasing part numbers. Sessions live in
// memory only; a process that dies mid-session leaves the upload open in the
// store, and its ID is available to callers through Info and the session hook.
package multipart
