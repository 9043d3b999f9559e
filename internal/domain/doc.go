// Package domain defines the core domain types and interfaces.
//
// This package contains the ranking model (entries, snapshots) and the
// cross-cutting contracts between the store adapter, the mutation gateway,
// the change notifier and the broadcast hub. No implementation code - just
// contracts. Prevents circular imports by keeping interfaces on the
// consumer side.
package domain
