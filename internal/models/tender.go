package models

import "time"

// Tender lifecycle states. A tender enters the pipeline waiting for
// filtering, is moved to qualified or unqualified by the filter loop, and
// a qualified tender is moved to notified once its alert has been sent.
const (
	StateWaitingForFiltering = "waiting_for_filtering"
	StateQualified           = "qualified"
	StateUnqualified         = "unqualified"
	StateNotified            = "notified"
)

// Tender represents a procurement opportunity tracked through the pipeline
type Tender struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Title         string    `json:"title" gorm:"type:varchar(512);not null"`
	Organization  string    `json:"organization" gorm:"type:varchar(255)"`
	PostedDate    string    `json:"posted_date" gorm:"type:varchar(10);index"`
	ClosingDate   string    `json:"closing_date" gorm:"type:varchar(10)"`
	Location      string    `json:"location" gorm:"type:varchar(255)"`
	URL           string    `json:"url" gorm:"type:varchar(1024)"`
	Source        string    `json:"source" gorm:"type:varchar(255)"`
	TenderContent string    `json:"tender_content" gorm:"type:varchar(10000)"`
	CreatedAt     time.Time `json:"created_at"`
	State         string    `json:"state" gorm:"type:varchar(32);not null;default:'waiting_for_filtering';index"`
	IsSent        bool      `json:"is_sent" gorm:"not null;default:false"`
}

// TableName specifies the table name for Tender
func (Tender) TableName() string {
	return "tenders"
}

// Candidate is a raw tender produced by a source connector before it has
// passed the ingestion gate. Dates are unvalidated free text at this point.
type Candidate struct {
	Title         string `json:"title"`
	Organization  string `json:"organization"`
	PostedDate    string `json:"posted_date"`
	ClosingDate   string `json:"closing_date"`
	Location      string `json:"location"`
	URL           string `json:"url"`
	Source        string `json:"source"`
	TenderContent string `json:"tender_content"`
}
