package repository

import "context"

// UserRecordStore persists user records keyed by user id. Callers load one
// record, mutate it and save it back; a failed save leaves the stored record
// untouched.
type UserRecordStore interface {
	// LoadUserRecord returns nil without error when the user has no record.
	LoadUserRecord(ctx context.Context, userID string) (*UserRecord, error)
	SaveUserRecord(ctx context.Context, userID string, record *UserRecord) error
	// ListUserRecords returns every record in insertion order.
	ListUserRecords(ctx context.Context) ([]UserRecordEntry, error)
	Close() error
}
