// Package dashboard assembles the citizen dashboard view from a stored profile.
package dashboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/rcliao/welfare-desk/internal/model"
	"github.com/rcliao/welfare-desk/internal/status"
)

// ImpactStat is one bar of the state-wide scheme reach chart.
type ImpactStat struct {
	Label   string `json:"label"`
	Percent int    `json:"percent"`
}

// ImpactStats are fixed figures; they are not computed from user data.
var ImpactStats = []ImpactStat{
	{Label: "Financial Assistance", Percent: 85},
	{Label: "Education Support", Percent: 72},
	{Label: "Housing & Shelter", Percent: 54},
	{Label: "Healthcare Reach", Percent: 91},
	{Label: "Farmer Subsidies", Percent: 68},
}

// Tracked is an application with its rendered roadmap.
type Tracked struct {
	model.Application
	Roadmap []status.Step `json:"roadmap"`
}

// Alert is a document renewal notice.
type Alert struct {
	Type    model.DocumentType `json:"type"`
	Message string             `json:"message"`
}

// Summary is everything the dashboard shows for one session.
type Summary struct {
	Session      string                `json:"session"`
	DisplayName  string                `json:"displayName"`
	HasProfile   bool                  `json:"hasProfile"`
	Address      *model.Address        `json:"permAddress,omitempty"`
	Applications []Tracked             `json:"applications"`
	Reminders    []model.Reminder      `json:"reminders"`
	Documents    []status.DocReadiness `json:"documents"`
	Counts       status.Tally          `json:"counts"`
	Alerts       []Alert               `json:"alerts"`
	Impact       []ImpactStat          `json:"impact"`
}

// Build derives the dashboard for session. A nil profile renders as an empty
// record: display name falls back to the session id and all documents are
// missing.
func Build(session string, p *model.Profile) Summary {
	s := Summary{
		Session:      session,
		DisplayName:  p.DisplayName(session),
		HasProfile:   p != nil,
		Applications: []Tracked{},
		Reminders:    []model.Reminder{},
		Documents:    status.Readiness(p),
		Alerts:       []Alert{},
		Impact:       ImpactStats,
	}
	s.Counts = status.Counts(s.Documents)

	if p == nil {
		return s
	}
	s.Address = p.PermAddress
	for _, app := range p.ActiveApplications {
		s.Applications = append(s.Applications, Tracked{Application: app, Roadmap: status.Roadmap(app)})
	}
	if p.Reminders != nil {
		s.Reminders = p.Reminders
	}
	for _, t := range status.Expiring(p) {
		s.Alerts = append(s.Alerts, Alert{
			Type:    t,
			Message: fmt.Sprintf("%s is due for renewal", t.Label()),
		})
	}
	return s
}

var stepMarks = map[status.StepStatus]string{
	status.StepCompleted: "[x]",
	status.StepCurrent:   "[>]",
	status.StepUpcoming:  "[ ]",
}

// WriteText renders the summary for a terminal.
func (s Summary) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Vanakkam, %s\n", s.DisplayName)
	if a := s.Address; a != nil {
		parts := []string{}
		for _, v := range []string{a.Door, a.Street, a.Village, a.Taluk, a.District, a.Pincode} {
			if v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) > 0 {
			fmt.Fprintf(&b, "Address: %s\n", strings.Join(parts, ", "))
		}
	}

	for _, al := range s.Alerts {
		fmt.Fprintf(&b, "! %s\n", al.Message)
	}

	fmt.Fprintf(&b, "\nApplications (%d)\n", len(s.Applications))
	for _, app := range s.Applications {
		fmt.Fprintf(&b, "  %s  %s\n   ", app.SchemeName, app.RefNumber)
		for _, step := range app.Roadmap {
			fmt.Fprintf(&b, " %s %s", stepMarks[step.Status], step.Label)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nDocuments (%d ready, %d expiring, %d missing)\n",
		s.Counts.Ready, s.Counts.Expiring, s.Counts.Missing)
	for _, d := range s.Documents {
		fmt.Fprintf(&b, "  %-24s %s\n", d.Label, d.Status)
	}

	fmt.Fprintf(&b, "\nSaved schemes (%d)\n", len(s.Reminders))
	for _, r := range s.Reminders {
		fmt.Fprintf(&b, "  %s  saved %s  needs %s\n", r.SchemeName, r.SavedDate, strings.Join(r.DocumentsNeeded, ", "))
	}

	b.WriteString("\nScheme reach\n")
	for _, st := range s.Impact {
		fmt.Fprintf(&b, "  %-22s %3d%%\n", st.Label, st.Percent)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
