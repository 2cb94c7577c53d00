// Package auth turns credential configuration into an authorized HTTP
// client for the spreadsheet API.
//
// Three sources are supported, chosen by which Config fields are set:
//
//   - a service-account JSON bundle, from a file or inline
//   - an OAuth client id, secret and redirect URI plus a refresh token
//   - application-default credentials, when nothing else is configured
//
// The client is built once and is not refreshed by this package beyond
// what the underlying oauth2 token source does on its own.
package auth
