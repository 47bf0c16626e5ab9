// Package defect holds the pure domain model of the defect lifecycle:
// types, the status state machine, severity rules, role capabilities and
// the identifier matchers. No persistence or transport concerns live here.
package defect

// AttachmentKind tags what an attachment holds.
type AttachmentKind string

const (
	AttachmentPhoto    AttachmentKind = "photo"
	AttachmentVideo    AttachmentKind = "video"
	AttachmentDocument AttachmentKind = "document"
)

// Attachment labels used by the before/after closure evidence rule.
const (
	LabelBefore = "before"
	LabelAfter  = "after"
)

// HistoryKind tags entries in the append-only history log.
type HistoryKind string

const (
	HistoryStatusChange   HistoryKind = "status_change"
	HistoryComment        HistoryKind = "comment"
	HistoryUpdate         HistoryKind = "update"
	HistorySeverityChange HistoryKind = "severity_change"
	HistoryClosed         HistoryKind = "closed"
	HistoryReopened       HistoryKind = "reopened"
)

type ActionItem struct {
	ID          string
	Description string
	Required    bool
	Completed   bool
}

type Attachment struct {
	ID    string
	Kind  AttachmentKind
	Label string
	Name  string
	URI   string
}

type Comment struct {
	ID         string
	AuthorID   string
	AuthorName string
	Body       string
	CreatedAt  string
}

type HistoryEntry struct {
	ID        string
	Kind      HistoryKind
	Summary   string
	ActorID   string
	ActorName string
	CreatedAt string
}

// Defect is the central entity. ID and Code are assigned at creation and
// never change. Unsafe is derived from severity and settings, never set
// directly. History is append-only.
type Defect struct {
	ID   string
	Code string

	Title       string
	Description string

	SeverityModel SeverityModel
	Severity      Severity
	Unsafe        bool

	Status        Status
	ReopenedCount int

	// PreviousOccurrenceID links a new-occurrence reopen back to the
	// closed record it was raised from.
	PreviousOccurrenceID string

	TargetRectificationDate string
	ComplianceTag           string

	Actions     []ActionItem
	Attachments []Attachment
	Comments    []Comment
	History     []HistoryEntry

	AssetID      string
	LocationID   string
	InspectionID string
	WorkOrderID  string
	SiteID       string

	AssigneeID   string
	AssigneeName string

	CreatedAt     string
	UpdatedAt     string
	CreatedByID   string
	CreatedByName string
	UpdatedByID   string
	UpdatedByName string
}

// Settings is the singleton configuration consulted by the unsafe and
// close-eligibility rules. Created once at first initialization, mutated
// in place afterwards, never deleted.
type Settings struct {
	DefaultModel        SeverityModel
	UnsafeSeverities    map[SeverityModel][]Severity
	BeforeAfterRequired bool
	UpdatedAt           string
}

// DefaultSettings returns the built-in severity thresholds: the top band
// of each scale counts as unsafe.
func DefaultSettings() Settings {
	return Settings{
		DefaultModel: ModelBasic,
		UnsafeSeverities: map[SeverityModel][]Severity{
			ModelBasic:  {SeverityHigh},
			ModelGraded: {SeverityMajor, SeverityCritical},
		},
		BeforeAfterRequired: false,
	}
}
