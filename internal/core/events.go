package core

import "time"

// EventKind names a change to a stock record.
type EventKind string

const (
	EventRecordCreated EventKind = "record.created"
	EventRecordUpdated EventKind = "record.updated"
	EventRecordDeleted EventKind = "record.deleted"
)

func (k EventKind) IsValid() bool {
	switch k {
	case EventRecordCreated, EventRecordUpdated, EventRecordDeleted:
		return true
	}
	return false
}

// RecordEvent announces that a record changed.
type RecordEvent struct {
	Kind      EventKind
	RecordID  string
	UserID    string
	Timestamp time.Time
}
