package domain

import "time"

// IssuePhoto references an uploaded photo attached to an issue. Only the
// storage URL is recorded here; media storage itself lives elsewhere.
type IssuePhoto struct {
	ID         string
	IssueID    string
	URL        string
	UploadedAt time.Time
}
