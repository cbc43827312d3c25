// Package mocks provides centralized test doubles for the application's
// interfaces.
//
// The in-memory stores evaluate query.Query values with the same semantics as
// the document backend (array fields match on any element, missing fields
// satisfy $ne), so handler and service tests can exercise filtering, sorting
// and pagination without a database:
//
//	tours := mocks.NewTourStore()
//	tours.Seed(&domain.Tour{ID: uuid.New(), Name: "The Forest Hiker"})
//
//	jwt := &mocks.MockJWTService{Token: "signed-token"}
//
// Fakes with function fields follow one rule: when the function is set it
// wins, otherwise the default fields are returned.
package mocks
