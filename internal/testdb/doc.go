//go:build integration

// Package testdb provides helpers for PostgreSQL integration tests.
//
// Tests run against the database named by NATOURS_TEST_DB_URL and are
// skipped when it is not set. The schema is migrated once per process, and
// each test runs inside a transaction that is rolled back when it finishes,
// so tests can run in parallel without cleanup:
//
//	func TestTourStore(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        tours := postgres.NewTourStore(tx, nil)
//	        // ...
//	    })
//	}
package testdb
