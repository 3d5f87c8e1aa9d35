// Package report assembles the customer status report: CRM contact and
// deal, the document folder and plan, and the deal's stage history.
package report

import (
	"time"

	"github.com/zvilnymo/casecheck/internal/resolve"
)

// Outcome says how far a lookup got.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeInvalidPhone Outcome = "invalid_phone"
	OutcomeNoContact    Outcome = "no_contact"
	OutcomeNoDeal       Outcome = "no_deal"
)

// DocStatus is the result of the document lookup.
type DocStatus string

const (
	DocFound          DocStatus = "found"
	DocFolderNotFound DocStatus = "folder_not_found"
	DocPlanNotFound   DocStatus = "plan_not_found"
	DocDriveError     DocStatus = "drive_error"
	DocFailed         DocStatus = "failed"
)

// Placeholder stands in for empty report fields.
const Placeholder = "—"

// Report is one customer lookup.
type Report struct {
	RequestID   string    `json:"request_id" yaml:"request_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Phone       string    `json:"phone" yaml:"phone"`
	Outcome     Outcome   `json:"outcome" yaml:"outcome"`
	CategoryID  int       `json:"category_id" yaml:"category_id"`

	ContactID int64  `json:"contact_id,omitempty" yaml:"contact_id,omitempty"`
	Client    string `json:"client,omitempty" yaml:"client,omitempty"`

	Deal     *Deal     `json:"deal,omitempty" yaml:"deal,omitempty"`
	Document *Document `json:"document,omitempty" yaml:"document,omitempty"`
	History  []Stage   `json:"history,omitempty" yaml:"history,omitempty"`
	// HistoryError is set when the stage history could not be built; the
	// rest of the report is still valid.
	HistoryError string `json:"history_error,omitempty" yaml:"history_error,omitempty"`
}

// Deal is the deal section of a report.
type Deal struct {
	ID          int64  `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	URL         string `json:"url" yaml:"url"`
	StageID     string `json:"stage_id" yaml:"stage_id"`
	Stage       string `json:"stage" yaml:"stage"`
	Responsible string `json:"responsible" yaml:"responsible"`
	Consultant  string `json:"consultant" yaml:"consultant"`
	Court       string `json:"court" yaml:"court"`
	Debt        string `json:"debt" yaml:"debt"`
}

// Document is the document section of a report.
type Document struct {
	Status DocStatus      `json:"status" yaml:"status"`
	Folder *resolve.Match `json:"folder,omitempty" yaml:"folder,omitempty"`
	PlanID string         `json:"plan_id,omitempty" yaml:"plan_id,omitempty"`
	Plan   string         `json:"plan,omitempty" yaml:"plan,omitempty"`
	Link   string         `json:"link,omitempty" yaml:"link,omitempty"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Stage is one labeled history segment.
type Stage struct {
	StageID  string        `json:"stage_id" yaml:"stage_id"`
	Label    string        `json:"label" yaml:"label"`
	Start    time.Time     `json:"start" yaml:"start"`
	End      time.Time     `json:"end" yaml:"end"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Current  bool          `json:"current,omitempty" yaml:"current,omitempty"`
}

// CurrentStage returns the live history segment, if any.
func (r *Report) CurrentStage() (Stage, bool) {
	if len(r.History) == 0 {
		return Stage{}, false
	}
	return r.History[len(r.History)-1], true
}
