// Package directory declares the tenant and user records managed by
// recordctl, together with their table shapes.
//
// Both records are keyed by a 16-byte identifier. Users are versioned by
// DateUpdated and unique by tenant and alias; tenants are unique by alias
// and overwrite unconditionally.
package directory
