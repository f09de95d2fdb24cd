// Package models defines the entities exchanged with the mazeed backend and persisted by the client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): wire types for the backend REST API
//   - [Credential] : access/refresh token pair with profile claims
//   - [ContentItem] : an imported Instagram reel or post
//   - [TransformationJob] and [TransformedItem] : backend job state
//   - request bodies such as [LoginRequest] and [TransformationRequest], carrying validation tags
//
// 2. Persistent Entities: database-backed models
//   - [JobRecord] : local history of submitted jobs
//
// [ID] and [Timestamp] absorb the loose typing of the backend, which sends ids
// as strings or numbers and times with or without zones.
//
// Access tokens are JWTs; when a response omits expiresAt or userId the values
// are read from the token claims without verifying the signature.
package models
