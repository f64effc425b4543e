// Package status derives the roadmap and document-readiness views shown on
// the dashboard. Every function here is total: out-of-domain inputs fall back
// to the safest enumerated value instead of failing.
package status

import "github.com/rcliao/welfare-desk/internal/model"

// StepStatus is the render state of one roadmap step.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepCurrent   StepStatus = "current"
	StepUpcoming  StepStatus = "upcoming"
)

// DocStatus is the readiness state of one mandatory document.
type DocStatus string

const (
	DocMissing  DocStatus = "missing"
	DocExpiring DocStatus = "expiring"
	DocReady    DocStatus = "ready"
)

// StepCount is the number of fixed roadmap stages.
const StepCount = 5

var weights = map[model.Status]int{
	model.StatusApplied:   0,
	model.StatusVAO:       1,
	model.StatusRI:        2,
	model.StatusTahsildar: 3,
	model.StatusDisbursed: 4,
}

var stepLabels = [StepCount]string{"Applied", "VAO", "RI", "Tahsildar", "Disbursed"}

// Weight maps a status to its position in the roadmap. Unknown values weigh 0.
func Weight(s model.Status) int {
	return weights[s]
}

// StepState compares the application's weight with a step index.
func StepState(current model.Status, step int) StepStatus {
	w := Weight(current)
	switch {
	case w > step:
		return StepCompleted
	case w == step:
		return StepCurrent
	default:
		return StepUpcoming
	}
}

// Step is one rendered roadmap stage.
type Step struct {
	Index  int          `json:"index"`
	Label  string       `json:"label"`
	Stage  model.Status `json:"stage"`
	Status StepStatus   `json:"status"`
}

// Roadmap renders all five stages for an application.
func Roadmap(app model.Application) []Step {
	steps := make([]Step, StepCount)
	for i := range steps {
		steps[i] = Step{
			Index:  i,
			Label:  stepLabels[i],
			Stage:  model.Statuses[i],
			Status: StepState(app.Status, i),
		}
	}
	return steps
}

// DocState applies the readiness policy. Income certificates are always
// flagged for renewal once uploaded; no expiry date is tracked.
func DocState(t model.DocumentType, present bool) DocStatus {
	if !present {
		return DocMissing
	}
	if t == model.DocIncome {
		return DocExpiring
	}
	return DocReady
}

// DocReadiness is the readiness of one mandatory document.
type DocReadiness struct {
	Type   model.DocumentType `json:"type"`
	Label  string             `json:"label"`
	Status DocStatus          `json:"status"`
}

// Readiness evaluates every mandatory document in display order. A nil
// profile yields all documents missing.
func Readiness(p *model.Profile) []DocReadiness {
	var docs model.Documents
	if p != nil {
		docs = p.Documents
	}
	out := make([]DocReadiness, 0, len(model.DocumentTypes))
	for _, t := range model.DocumentTypes {
		out = append(out, DocReadiness{
			Type:   t,
			Label:  t.Label(),
			Status: DocState(t, docs.Has(t)),
		})
	}
	return out
}

// Expiring lists uploaded documents that are due for renewal.
func Expiring(p *model.Profile) []model.DocumentType {
	var out []model.DocumentType
	for _, r := range Readiness(p) {
		if r.Status == DocExpiring {
			out = append(out, r.Type)
		}
	}
	return out
}

// Tally counts documents per readiness state.
type Tally struct {
	Ready    int `json:"ready"`
	Expiring int `json:"expiring"`
	Missing  int `json:"missing"`
}

// Counts tallies a readiness list.
func Counts(rs []DocReadiness) Tally {
	var t Tally
	for _, r := range rs {
		switch r.Status {
		case DocReady:
			t.Ready++
		case DocExpiring:
			t.Expiring++
		default:
			t.Missing++
		}
	}
	return t
}
