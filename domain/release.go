package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReleaseStatus represents the status of a production release.
type ReleaseStatus int

const (
	ReleaseStatusDraft ReleaseStatus = iota
	ReleaseStatusInProgress
	ReleaseStatusCompleted
	ReleaseStatusCancelled
)

func (s ReleaseStatus) String() string {
	switch s {
	case ReleaseStatusDraft:
		return "draft"
	case ReleaseStatusInProgress:
		return "in_progress"
	case ReleaseStatusCompleted:
		return "completed"
	case ReleaseStatusCancelled:
		return "cancelled"
	default:
		return "draft"
	}
}

func ParseReleaseStatus(s string) (ReleaseStatus, error) {
	switch s {
	case "draft":
		return ReleaseStatusDraft, nil
	case "in_progress":
		return ReleaseStatusInProgress, nil
	case "completed":
		return ReleaseStatusCompleted, nil
	case "cancelled":
		return ReleaseStatusCancelled, nil
	default:
		return ReleaseStatusDraft, fmt.Errorf("invalid release status: %q", s)
	}
}

// StepStatus represents the status of a single release step.
type StepStatus int

const (
	StepStatusPending StepStatus = iota
	StepStatusInProgress
	StepStatusCompleted
	StepStatusSkipped
)

func (s StepStatus) String() string {
	switch s {
	case StepStatusPending:
		return "pending"
	case StepStatusInProgress:
		return "in_progress"
	case StepStatusCompleted:
		return "completed"
	case StepStatusSkipped:
		return "skipped"
	default:
		return "pending"
	}
}

func ParseStepStatus(s string) (StepStatus, error) {
	switch s {
	case "pending":
		return StepStatusPending, nil
	case "in_progress":
		return StepStatusInProgress, nil
	case "completed":
		return StepStatusCompleted, nil
	case "skipped":
		return StepStatusSkipped, nil
	default:
		return StepStatusPending, fmt.Errorf("invalid step status: %q", s)
	}
}

// StepID identifies one of the eight fixed release steps. The set and order
// are fixed; steps execute strictly in ascending order.
type StepID int

const (
	StepDeployStaging StepID = iota + 1
	StepNotifyQAStaging
	StepQASignOff
	StepNotifyStartProduction
	StepPOSignOff
	StepDeployProduction
	StepNotifyQAProductionDone
	StepCreateRelease

	StepCount = 8
)

func (id StepID) Valid() bool {
	return id >= StepDeployStaging && id <= StepCreateRelease
}

func (id StepID) String() string {
	switch id {
	case StepDeployStaging:
		return "deploy_staging"
	case StepNotifyQAStaging:
		return "notify_qa_staging"
	case StepQASignOff:
		return "qa_signoff"
	case StepNotifyStartProduction:
		return "notify_start_production"
	case StepPOSignOff:
		return "po_signoff"
	case StepDeployProduction:
		return "deploy_production"
	case StepNotifyQAProductionDone:
		return "notify_qa_production_done"
	case StepCreateRelease:
		return "create_release"
	default:
		return "unknown"
	}
}

// Title returns the human-readable step name.
func (id StepID) Title() string {
	switch id {
	case StepDeployStaging:
		return "Deploy to staging"
	case StepNotifyQAStaging:
		return "Notify QA of staging deploy"
	case StepQASignOff:
		return "QA sign-off"
	case StepNotifyStartProduction:
		return "Notify start of production deploy"
	case StepPOSignOff:
		return "PO sign-off"
	case StepDeployProduction:
		return "Deploy to production"
	case StepNotifyQAProductionDone:
		return "Notify QA production complete"
	case StepCreateRelease:
		return "Create GitHub release"
	default:
		return "Unknown step"
	}
}

// RequiresEmail reports whether the step completes by marking a notification
// email as sent.
func (id StepID) RequiresEmail() bool {
	return id == StepNotifyQAStaging || id == StepNotifyStartProduction || id == StepNotifyQAProductionDone
}

// RequiresSignOff reports whether the step completes by recording a sign-off.
func (id StepID) RequiresSignOff() bool {
	return id == StepQASignOff || id == StepPOSignOff
}

// SupportsOverride reports whether the step may be completed manually
// independent of deployment tracker data.
func (id StepID) SupportsOverride() bool {
	return id == StepDeployStaging || id == StepDeployProduction || id == StepCreateRelease
}

// EmailRecord marks a notification email as sent to a set of recipients.
type EmailRecord struct {
	Recipients []string  `json:"recipients"`
	Subject    string    `json:"subject,omitempty"`
	SentAt     time.Time `json:"sentAt"`
}

// SignOffRecord is a QA or PO approval.
type SignOffRecord struct {
	Name     string    `json:"name"`
	Notes    string    `json:"notes,omitempty"`
	SignedAt time.Time `json:"signedAt"`
}

// ComplianceFile is an inlined compliance document attached to a release.
type ComplianceFile struct {
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType,omitempty"`
	Content     []byte    `json:"content"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Step is the persisted state of one release step.
type Step struct {
	ID          StepID     `json:"stepId"`
	Status      StepStatus `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	// Manual marks a deploy/release step completed by override rather than
	// derived from tracker data.
	Manual bool `json:"manual,omitempty"`
}

// ProductionRelease is the persisted 8-step manual release process for one
// release number within a project.
type ProductionRelease struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	ReleaseNumber   string
	Status          ReleaseStatus
	Steps           []Step
	QASignOff       *SignOffRecord
	POSignOff       *SignOffRecord
	ComplianceFile  *ComplianceFile
	EmailRecipients []string
	Emails          map[StepID]*EmailRecord
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// NewProductionRelease constructs a draft release with all eight steps
// pending.
func NewProductionRelease(projectID uuid.UUID, releaseNumber string) *ProductionRelease {
	steps := make([]Step, StepCount)
	for i := range steps {
		steps[i] = Step{ID: StepID(i + 1), Status: StepStatusPending}
	}
	return &ProductionRelease{
		ID:            uuid.New(),
		ProjectID:     projectID,
		ReleaseNumber: releaseNumber,
		Status:        ReleaseStatusDraft,
		Steps:         steps,
		Emails:        make(map[StepID]*EmailRecord),
	}
}

// Step returns a pointer to the persisted step record, or nil for an
// out-of-range id.
func (r *ProductionRelease) Step(id StepID) *Step {
	for i := range r.Steps {
		if r.Steps[i].ID == id {
			return &r.Steps[i]
		}
	}
	return nil
}

// CanExecute reports whether the step may run now: every lower step is
// completed or skipped and this step is not already completed. Gating is
// strict even when a later step's preconditions happen to hold.
func (r *ProductionRelease) CanExecute(id StepID) bool {
	if !id.Valid() {
		return false
	}
	step := r.Step(id)
	if step == nil || step.Status == StepStatusCompleted {
		return false
	}
	for i := range r.Steps {
		if r.Steps[i].ID >= id {
			continue
		}
		if r.Steps[i].Status != StepStatusCompleted && r.Steps[i].Status != StepStatusSkipped {
			return false
		}
	}
	return true
}

// AllStepsCompleted reports whether every step reached completed.
func (r *ProductionRelease) AllStepsCompleted() bool {
	for i := range r.Steps {
		if r.Steps[i].Status != StepStatusCompleted {
			return false
		}
	}
	return len(r.Steps) == StepCount
}

// SuggestReleaseNumber proposes the next YYYY.MM.sequence number given the
// numbers already taken this month. The format is a suggestion only; release
// numbers are free text.
func SuggestReleaseNumber(now time.Time, existing []string) string {
	prefix := fmt.Sprintf("%04d.%02d.", now.Year(), int(now.Month()))
	seq := 1
	for _, n := range existing {
		var y, m, s int
		if _, err := fmt.Sscanf(n, "%d.%d.%d", &y, &m, &s); err == nil {
			if y == now.Year() && m == int(now.Month()) && s >= seq {
				seq = s + 1
			}
		}
	}
	return fmt.Sprintf("%s%d", prefix, seq)
}
