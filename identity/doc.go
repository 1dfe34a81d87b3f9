// Package identity defines the contract between authstate and the hosted
// identity backend: the one-shot session query, the push notification
// stream, and the delegated sign-in operations.
//
// The package also parses the backend's access tokens. Sessions arrive
// with an HS256-signed JWT; [TokenVerifier] extracts the user identity
// from it when a notification carries only a raw token.
package identity
