package consent

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/capilarmax/clinic-api/internal/model"
	apperrors "github.com/capilarmax/clinic-api/pkg/errors"
)

// IncompleteMessage is shown when a submission is rejected.
const IncompleteMessage = "Please complete all initial fields, signatures, and representative information."

var (
	ErrIncomplete = errors.New("consent form incomplete")
	ErrCompleted  = errors.New("consent form already completed")
)

type State string

const (
	StateEditing  State = "editing"
	StateComplete State = "complete"
)

// Draft is the editable consent form of one patient. Nothing in it reaches
// the patient record until Submit succeeds.
type Draft struct {
	PatientID               string
	State                   State
	Initials                map[model.Section]bool
	PatientSignature        *model.Signature
	RepresentativeSignature *model.Signature
	RepresentativeName      string
	Marketing               model.MarketingChoice
	OpenedAt                time.Time
}

func NewDraft(patientID string, openedAt time.Time) *Draft {
	initials := make(map[model.Section]bool, len(model.ConsentSections))
	for _, s := range model.ConsentSections {
		initials[s] = false
	}
	return &Draft{
		PatientID: patientID,
		State:     StateEditing,
		Initials:  initials,
		Marketing: model.MarketingUndecided,
		OpenedAt:  openedAt,
	}
}

// ToggleInitial flips the initial of one section.
func (d *Draft) ToggleInitial(section model.Section) error {
	if err := d.editable(); err != nil {
		return err
	}
	if _, ok := d.Initials[section]; !ok {
		return apperrors.NewValidation("invalid input", "unknown section "+string(section))
	}
	d.Initials[section] = !d.Initials[section]
	return nil
}

// SetSignature stores a captured signature for party; nil clears the slot.
func (d *Draft) SetSignature(party model.SignatureParty, sig *model.Signature) error {
	if err := d.editable(); err != nil {
		return err
	}
	switch party {
	case model.PartyPatient:
		d.PatientSignature = sig
	case model.PartyRepresentative:
		d.RepresentativeSignature = sig
	default:
		return apperrors.NewValidation("invalid input", "unknown signature party "+string(party))
	}
	return nil
}

func (d *Draft) SetRepresentativeName(name string) error {
	if err := d.editable(); err != nil {
		return err
	}
	d.RepresentativeName = name
	return nil
}

func (d *Draft) SetMarketing(choice model.MarketingChoice) error {
	if err := d.editable(); err != nil {
		return err
	}
	d.Marketing = choice
	return nil
}

// Missing lists the unmet completion conditions in form order.
func (d *Draft) Missing() []string {
	var missing []string
	for _, s := range model.ConsentSections {
		if !d.Initials[s] {
			missing = append(missing, "initial "+string(s)+" ("+s.Label()+")")
		}
	}
	if d.PatientSignature == nil {
		missing = append(missing, "patient signature")
	}
	if d.RepresentativeSignature == nil {
		missing = append(missing, "representative signature")
	}
	if strings.TrimSpace(d.RepresentativeName) == "" {
		missing = append(missing, "representative name")
	}
	if d.Marketing != model.MarketingYes && d.Marketing != model.MarketingNo {
		missing = append(missing, "marketing choice")
	}
	return missing
}

// Complete is the completion predicate: every initial, both signatures, a
// representative name and a marketing decision.
func (d *Draft) Complete() bool {
	return len(d.Missing()) == 0
}

// Submit builds the consent record when the draft is complete. A rejected
// submission leaves the draft untouched.
func (d *Draft) Submit(now time.Time) (*model.ConsentRecord, error) {
	if err := d.editable(); err != nil {
		return nil, err
	}
	if missing := d.Missing(); len(missing) > 0 {
		return nil, &apperrors.AppError{
			Code:    apperrors.ErrValidation,
			Message: IncompleteMessage,
			Details: missing,
			Err:     ErrIncomplete,
		}
	}

	initials := make(map[model.Section]bool, len(d.Initials))
	for k, v := range d.Initials {
		initials[k] = v
	}
	rec := &model.ConsentRecord{
		ID:                      uuid.NewString(),
		Date:                    now,
		FormVersion:             model.ConsentFormVersion,
		PatientSignature:        *d.PatientSignature,
		RepresentativeSignature: *d.RepresentativeSignature,
		RepresentativeName:      strings.TrimSpace(d.RepresentativeName),
		Initials:                initials,
		MarketingConsent:        d.Marketing == model.MarketingYes,
	}
	d.State = StateComplete
	return rec.Clone(), nil
}

func (d *Draft) editable() error {
	if d.State == StateComplete {
		return apperrors.BadRequest("consent form already completed", ErrCompleted)
	}
	return nil
}

// DraftView is the client-facing state of a draft. Signature images are not
// echoed back; only their presence and size.
type DraftView struct {
	PatientID               string                 `json:"patient_id"`
	State                   State                  `json:"state"`
	Initials                map[model.Section]bool `json:"initials"`
	PatientSignature        *SignatureInfo         `json:"patient_signature,omitempty"`
	RepresentativeSignature *SignatureInfo         `json:"representative_signature,omitempty"`
	RepresentativeName      string                 `json:"representative_name"`
	Marketing               model.MarketingChoice  `json:"marketing"`
	Complete                bool                   `json:"complete"`
	Missing                 []string               `json:"missing"`
	OpenedAt                time.Time              `json:"opened_at"`
}

type SignatureInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Digest string `json:"digest"`
}

func (d *Draft) View() *DraftView {
	initials := make(map[model.Section]bool, len(d.Initials))
	for k, v := range d.Initials {
		initials[k] = v
	}
	missing := d.Missing()
	if missing == nil {
		missing = []string{}
	}
	return &DraftView{
		PatientID:               d.PatientID,
		State:                   d.State,
		Initials:                initials,
		PatientSignature:        info(d.PatientSignature),
		RepresentativeSignature: info(d.RepresentativeSignature),
		RepresentativeName:      d.RepresentativeName,
		Marketing:               d.Marketing,
		Complete:                len(missing) == 0,
		Missing:                 missing,
		OpenedAt:                d.OpenedAt,
	}
}

func info(sig *model.Signature) *SignatureInfo {
	if sig == nil {
		return nil
	}
	return &SignatureInfo{Width: sig.Width, Height: sig.Height, Digest: sig.Digest}
}
