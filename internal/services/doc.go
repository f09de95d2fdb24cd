// Package services implements clients for the mazeed backend.
//
// # Authentication
//
// [AuthService] calls the /Auth endpoints with a plain client. Every other service
// receives a client built by [NewAuthorizedClient], whose [oauth2.Transport] asks a
// [CredentialSource] for the bearer token before each request.
//
// [CredentialSource] reads the stored credential on every call. When the access
// token has expired it calls /Auth/refresh-token exactly once, under a mutex so
// concurrent requests share the result. If the refresh fails, all storage is
// cleared, the failure hook runs and the request is never sent.
//
// # Services
//
//   - [TransformationService] : submit, list, fetch and cancel transformation jobs
//   - [UploadService] : publish transformed media to TikTok and YouTube
//   - [APIService] : raw authenticated calls for debugging
//
// [ConnectURL] builds the address of a platform connect flow.
//
// # Error Handling
//
// Non-2xx responses become [*APIError], which wraps [shared.ErrAPIRequest] and carries
// the backend "message" field. [Message] returns the text to show the user, falling
// back to [FallbackMessage].
package services
