package models

// ThreadRecord is the persisted metadata of a private thread.
type ThreadRecord struct {
	ID      string `json:"id"`
	Subject string `json:"subject,omitempty"`
	// Recipients is the fixed recipient set of the thread.
	Recipients []Identity `json:"recipients,omitempty"`
	CreatedTS  int64      `json:"created_ts,omitempty"`
	// Deleted marks a thread as soft-deleted; DeletedTS records deletion time (ns)
	Deleted   bool  `json:"deleted,omitempty"`
	DeletedTS int64 `json:"deleted_ts,omitempty"`
}

// ThreadSnapshot is a fully hydrated thread as loaded from persistence.
type ThreadSnapshot struct {
	Record   ThreadRecord   `json:"record"`
	Messages []Message      `json:"messages,omitempty"`
	Unread   map[string]int `json:"unread,omitempty"`
}
