package model

import (
	"fmt"
	"strings"
	"time"
)

// ConsentFormVersion identifies the wording of the comprehensive consent form.
const ConsentFormVersion = "comprehensive-2026.1"

// Section identifies one initialable part of the consent form.
type Section string

const (
	SectionOperation  Section = "B"
	SectionAnesthesia Section = "C"
	SectionNoGuaranty Section = "D"
	SectionPostOpCare Section = "E"
	SectionFinancial  Section = "F"
	SectionPhotoVideo Section = "G"
	SectionHIPAA      Section = "H"
)

// ConsentSections is the fixed, ordered set of sections that need initials.
var ConsentSections = []Section{
	SectionOperation,
	SectionAnesthesia,
	SectionNoGuaranty,
	SectionPostOpCare,
	SectionFinancial,
	SectionPhotoVideo,
	SectionHIPAA,
}

var sectionLabels = map[Section]string{
	SectionOperation:  "Operation Informed Consent",
	SectionAnesthesia: "Anesthesia & Medication",
	SectionNoGuaranty: "No Guarantee Disclaimer",
	SectionPostOpCare: "Post-Op Care Responsibility",
	SectionFinancial:  "Financial Agreement",
	SectionPhotoVideo: "Photo/Video Consent",
	SectionHIPAA:      "HIPAA Authorization",
}

// ParseSection accepts a section id in either case.
func ParseSection(s string) (Section, error) {
	sec := Section(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := sectionLabels[sec]; !ok {
		return "", fmt.Errorf("unknown consent section %q", s)
	}
	return sec, nil
}

// Label is the short checklist label used in exported documents.
func (s Section) Label() string {
	return sectionLabels[s]
}

// MarketingChoice is the tri-state answer to the optional marketing question.
type MarketingChoice string

const (
	MarketingUndecided MarketingChoice = "undecided"
	MarketingYes       MarketingChoice = "yes"
	MarketingNo        MarketingChoice = "no"
)

func ParseMarketingChoice(s string) (MarketingChoice, error) {
	switch c := MarketingChoice(strings.ToLower(strings.TrimSpace(s))); c {
	case MarketingUndecided, MarketingYes, MarketingNo:
		return c, nil
	case "":
		return MarketingUndecided, nil
	default:
		return "", fmt.Errorf("unknown marketing choice %q", s)
	}
}

// SignatureParty names whose signature a capture belongs to.
type SignatureParty string

const (
	PartyPatient        SignatureParty = "patient"
	PartyRepresentative SignatureParty = "representative"
)

func ParseSignatureParty(s string) (SignatureParty, error) {
	switch p := SignatureParty(strings.ToLower(s)); p {
	case PartyPatient, PartyRepresentative:
		return p, nil
	default:
		return "", fmt.Errorf("unknown signature party %q", s)
	}
}

// Signature is a captured drawing trimmed to its ink bounds.
type Signature struct {
	PNG    []byte `json:"png"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Digest string `json:"digest"`
}

// ConsentRecord only exists for a fully completed form.
type ConsentRecord struct {
	ID                      string           `json:"id"`
	Date                    time.Time        `json:"date"`
	FormVersion             string           `json:"form_version"`
	PatientSignature        Signature        `json:"patient_signature"`
	RepresentativeSignature Signature        `json:"representative_signature"`
	RepresentativeName      string           `json:"representative_name"`
	Initials                map[Section]bool `json:"initials"`
	MarketingConsent        bool             `json:"marketing_consent"`
}

func (r *ConsentRecord) Clone() *ConsentRecord {
	c := *r
	c.Initials = make(map[Section]bool, len(r.Initials))
	for k, v := range r.Initials {
		c.Initials[k] = v
	}
	c.PatientSignature.PNG = append([]byte(nil), r.PatientSignature.PNG...)
	c.RepresentativeSignature.PNG = append([]byte(nil), r.RepresentativeSignature.PNG...)
	return &c
}
