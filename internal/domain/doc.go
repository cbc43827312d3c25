// Package domain defines the tours, users and reviews of the booking API:
// their field rules, the lifecycle hooks run before every write, the read
// scopes that hide secret tours and inactive users, and the structured Error
// every layer reports failures with.
package domain
