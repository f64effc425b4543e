// Package model defines the citizen profile record and its parts.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// IncomePeriod says how the stored income figure should be read.
type IncomePeriod string

const (
	IncomeMonthly IncomePeriod = "monthly"
	IncomeAnnual  IncomePeriod = "annual"
)

// Profile is the full persisted state for one applicant, keyed by phone.
type Profile struct {
	Name               string        `json:"name,omitempty"`
	Phone              string        `json:"phone,omitempty"`
	Income             float64       `json:"income,omitempty"`
	IncomePeriod       IncomePeriod  `json:"incomePeriod,omitempty"`
	FamilySize         int           `json:"familySize,omitempty"`
	Occupation         string        `json:"occupation,omitempty"`
	Education          string        `json:"education,omitempty"`
	EmploymentStatus   string        `json:"employmentStatus,omitempty"`
	Category           string        `json:"category,omitempty"`
	Documents          Documents     `json:"documents,omitempty"`
	ActiveApplications []Application `json:"activeApplications,omitempty"`
	Reminders          []Reminder    `json:"reminders"`
	PermAddress        *Address      `json:"permAddress,omitempty"`

	// Extra holds stored fields this struct does not model. They are written
	// back unchanged so a partial update never drops them.
	Extra map[string]json.RawMessage `json:"-"`

	// rawDocs keeps the stored document values so non-string markers survive
	// a decode/encode cycle.
	rawDocs map[DocumentType]json.RawMessage
}

// profileFields lists the json names of the modelled fields.
var profileFields = map[string]bool{
	"name": true, "phone": true, "income": true, "incomePeriod": true,
	"familySize": true, "occupation": true, "education": true,
	"employmentStatus": true, "category": true, "documents": true,
	"activeApplications": true, "reminders": true, "permAddress": true,
}

// profileRecord drops the methods so the default codec can be reused.
type profileRecord Profile

func (p *Profile) UnmarshalJSON(b []byte) error {
	var rec profileRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	*p = Profile(rec)
	p.Extra, p.rawDocs = nil, nil
	for k, v := range fields {
		if profileFields[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[k] = v
	}
	if raw, ok := fields["documents"]; ok {
		var docs map[DocumentType]json.RawMessage
		if json.Unmarshal(raw, &docs) == nil {
			p.rawDocs = docs
		}
	}
	return nil
}

func (p Profile) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(profileRecord(p))
	if err != nil || (len(p.Extra) == 0 && p.rawDocs == nil) {
		return b, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if !profileFields[k] {
			fields[k] = v
		}
	}
	if len(p.Documents) > 0 {
		docs := make(map[DocumentType]json.RawMessage, len(p.Documents))
		for t, m := range p.Documents {
			// An entry still equal to what was read is written back as read.
			if raw, ok := p.rawDocs[t]; ok && decodeMarker(raw) == m {
				docs[t] = raw
				continue
			}
			s, err := json.Marshal(string(m))
			if err != nil {
				return nil, err
			}
			docs[t] = s
		}
		if fields["documents"], err = json.Marshal(docs); err != nil {
			return nil, err
		}
	}
	return json.Marshal(fields)
}

// Address is the structured permanent address shown on the dashboard.
type Address struct {
	Door     string `json:"door,omitempty"`
	Street   string `json:"street,omitempty"`
	Village  string `json:"village,omitempty"`
	Taluk    string `json:"taluk,omitempty"`
	District string `json:"district,omitempty"`
	Pincode  string `json:"pincode,omitempty"`
}

// Application is a scheme application already submitted by the citizen.
type Application struct {
	SchemeName  string `json:"schemeName"`
	RefNumber   string `json:"refNumber"`
	DateApplied string `json:"dateApplied"`
	Status      Status `json:"status"`
}

// Reminder is a saved scheme bookmark kept for offline reference.
type Reminder struct {
	ID              string   `json:"id"`
	SchemeName      string   `json:"schemeName"`
	DocumentsNeeded []string `json:"documentsNeeded"`
	SavedDate       string   `json:"savedDate"`
}

// NewProfile returns the empty record synthesized for a session that has
// never been written.
func NewProfile(session string) *Profile {
	return &Profile{Phone: session, Reminders: []Reminder{}}
}

// AnnualIncome normalises the stored income to a yearly figure.
func (p *Profile) AnnualIncome() float64 {
	if p.IncomePeriod == IncomeMonthly {
		return p.Income * 12
	}
	return p.Income
}

// FamilySizeLabel is the family size as the eligibility form shows it.
func (p *Profile) FamilySizeLabel() string {
	if p.FamilySize >= 6 {
		return "More than 5"
	}
	return strconv.Itoa(p.FamilySize)
}

// DisplayName falls back to the session identifier when no name was given.
func (p *Profile) DisplayName(session string) string {
	if p != nil && p.Name != "" {
		return p.Name
	}
	return session
}

// DocumentMarker is whatever the dashboard stored for an uploaded document,
// usually a data URL. Non-string values are kept as their raw JSON text.
type DocumentMarker string

func (m *DocumentMarker) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	*m = decodeMarker(b)
	return nil
}

func decodeMarker(b []byte) DocumentMarker {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte("false")):
		return ""
	case len(b) > 0 && b[0] == '"':
		var s string
		_ = json.Unmarshal(b, &s)
		return DocumentMarker(s)
	default:
		return DocumentMarker(b)
	}
}

// Documents maps a document type to its stored marker.
type Documents map[DocumentType]DocumentMarker

// Has reports whether a document of the given type was uploaded.
func (d Documents) Has(t DocumentType) bool {
	return d[t] != ""
}
