// Package api handles incoming HTTP requests for tours, users and reviews. It
// acts as an adapter between clients and the stores and credential manager:
// handlers decode and validate input, delegate, and serialize a JSON
// envelope. Every failure goes through Translate, so the mapping from errors
// to status codes and messages lives in one place.
package api
