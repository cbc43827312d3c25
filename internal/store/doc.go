// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic. Two implementations exist: a MongoDB
// document store (platform/mongodb) and a PostgreSQL store
// (platform/postgres). Both consume the backend-neutral query.Query.
package store
