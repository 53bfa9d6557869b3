package domain

import "time"

// TimelineEntry is an immutable audit record. The timeline is append-only:
// every accepted transition appends exactly one entry. Seq is assigned by
// the store at accept time and is the total order of the timeline;
// Timestamp is client wall-clock, kept for display only.
type TimelineEntry struct {
	ID        string
	Seq       int64
	CaseID    string
	Timestamp time.Time
	Status    CaseStatus
	ActorRef  string
	Note      string
}

// CommunicationEntry records an outbound customer contact. Append-only,
// ordered by Seq like the timeline.
type CommunicationEntry struct {
	ID        string
	Seq       int64
	CaseID    string
	Timestamp time.Time
	Channel   string
	ActorRef  string
	Message   string
}
