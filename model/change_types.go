package model

// IssueType identifies the defect category of a change proposal.
type IssueType string

const (
	IssueMissingPSATape     IssueType = "MISSING_PSA_TAPE"
	IssueDuplicateInsert    IssueType = "DUPLICATE_INSERT"
	IssueOrphanRow          IssueType = "ORPHAN_ROW"
	IssueIndexMismatch      IssueType = "INDEX_MISMATCH"
	IssueErrorEventMismatch IssueType = "ERROR_EVENT_MISMATCH"
	IssueRepeatedInsert     IssueType = "REPEATED_INSERT"
)

// Action is the proposed fix kind.
type Action string

const (
	ActionDelete Action = "DELETE"
	ActionUpdate Action = "UPDATE"
	ActionFlag   Action = "FLAG"
)

// Status is the review state of a proposal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Change is a detected defect plus its proposed fix. IDs are derived from
// the issue type and the row/line identity, so re-running the analysis on
// unchanged input regenerates the same set.
//
// Invariants: DELETE implies After == nil; UPDATE implies After differs from
// Before in at least one field; FLAG means no automatic fix was determined.
type Change struct {
	ID          string    `json:"id"`
	IssueType   IssueType `json:"issueType"`
	Description string    `json:"description"`
	Timestamp   string    `json:"timestamp"`
	Action      Action    `json:"action"`
	RowID       string    `json:"rowId,omitempty"`

	Before map[string]string `json:"before,omitempty"`
	After  map[string]string `json:"after,omitempty"`

	// Detector-specific detail fields.
	SuggestedValue     string `json:"suggestedValue,omitempty"`
	DuplicateOf        string `json:"duplicateOf,omitempty"`
	Component          string `json:"component,omitempty"`
	SNIndex            int    `json:"snIndex,omitempty"`
	PSAIndex           int    `json:"psaIndex,omitempty"`
	ExpectedIndex      int    `json:"expectedIndex,omitempty"`
	SuggestedClearTime string `json:"suggestedClearTime,omitempty"`

	Evidence      []string `json:"evidence"`
	EvidenceLines []int    `json:"evidenceLines"`

	Status Status `json:"status"`
}
