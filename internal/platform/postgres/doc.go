// Package postgres provides PostgreSQL implementations of the storage
// interfaces defined in the internal/store package. Queries composed by the
// query package are rendered into parameterized SQL; list fields are kept in
// JSONB columns so array semantics match the document store. Schema changes
// are goose migrations embedded from the migrations directory.
package postgres
