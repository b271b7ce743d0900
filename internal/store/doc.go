// Package store manages workflow persistence backed by SQLite.
//
// It owns the file, department, timer, work-session, and audit tables, the
// Status/Stage enums, and the centralized status-to-stage-to-department
// mapping every transition is driven through. All mutating operations run
// inside immediate transactions so racing operators serialize at the
// database; the two single-active invariants (one open timer per file, one
// open work session per user) are additionally enforced by partial unique
// indexes.
package store
