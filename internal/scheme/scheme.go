// Package scheme is the client side of the Scheme Intelligence Service: a
// stateless request/response facade over a hosted Gemini model that answers
// free-text welfare questions and returns structured eligibility, grievance,
// location and document-quality judgements.
package scheme

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/rcliao/welfare-desk/internal/model"
)

// Language selects the language the model answers in.
type Language string

const (
	English Language = "en"
	Tamil   Language = "ta"
	Hindi   Language = "hi"
)

// Name is the language name used inside prompts. Unknown codes fall back to English.
func (l Language) Name() string {
	switch l {
	case Tamil:
		return "Tamil"
	case Hindi:
		return "Hindi"
	default:
		return "English"
	}
}

// Source is one web citation backing a grounded answer.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SearchResult is a grounded free-text answer.
type SearchResult struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// Eligibility is the model's verdict on a profile for one scheme.
type Eligibility struct {
	IsEligible        bool     `json:"isEligible"`
	EvaluationReason  string   `json:"evaluationReason"`
	PotentialBenefits string   `json:"potentialBenefits"`
	DocumentsVerified []string `json:"documentsVerified"`
}

// Grievance is a citizen complaint routed to a department.
type Grievance struct {
	Department      string `json:"department"`
	FormalSummary   string `json:"formalSummary"`
	RequestedAction string `json:"requestedAction"`
	Urgency         string `json:"urgency"`
}

// Location is a Tamil Nadu administrative address resolved from coordinates.
type Location struct {
	District string `json:"district"`
	Taluk    string `json:"taluk"`
	Village  string `json:"village"`
	Pincode  string `json:"pincode"`
}

// Address converts the location into the profile's address shape.
func (l Location) Address() *model.Address {
	return &model.Address{Village: l.Village, Taluk: l.Taluk, District: l.District, Pincode: l.Pincode}
}

// DocumentCheck is the model's opinion on an uploaded document photo.
type DocumentCheck struct {
	IsValid  bool   `json:"isValid"`
	Feedback string `json:"feedback"`
}

// Service is the Scheme Intelligence Service. Calls are single-shot: no
// retries, no streaming, no pagination. Failures are *ServiceError.
type Service interface {
	Search(ctx context.Context, query string, lang Language) (*SearchResult, error)
	EvaluateEligibility(ctx context.Context, p *model.Profile, schemeName string, lang Language) (*Eligibility, error)
	ClassifyGrievance(ctx context.Context, description string, lang Language) (*Grievance, error)
	Geocode(ctx context.Context, lat, lng float64, lang Language) (*Location, error)
	VerifyDocumentImage(ctx context.Context, image []byte, mimeType, docType string, lang Language) (*DocumentCheck, error)
	NearbyCenters(ctx context.Context, lat, lng float64, lang Language) (*SearchResult, error)
	Suggest(ctx context.Context, situation string, lang Language) (string, error)
}

// ServiceError wraps any failure talking to the model or reading its answer.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("scheme service %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

var (
	numberedLine = regexp.MustCompile(`^\d\.`)
	nameNoise    = regexp.MustCompile(`[*\d.]`)
)

// ExtractSchemeNames pulls up to five scheme names out of a free-text answer:
// numbered lines or lines with bold markup, stripped of markup, digits and
// dots. Names of five characters or fewer are dropped.
func ExtractSchemeNames(text string) []string {
	var candidates []string
	for _, line := range strings.Split(text, "\n") {
		if numberedLine.MatchString(line) || strings.Contains(line, "**") {
			candidates = append(candidates, line)
			if len(candidates) == 5 {
				break
			}
		}
	}

	var names []string
	for _, c := range candidates {
		name := strings.TrimSpace(nameNoise.ReplaceAllString(c, ""))
		if len([]rune(name)) > 5 {
			names = append(names, name)
		}
	}
	return names
}

const defaultImageMIME = "image/jpeg"

var dataURLPrefix = regexp.MustCompile(`^data:(.*?);base64,`)

// DecodeDataURL splits a base64 data URL into its bytes and MIME type. Input
// without a data: prefix is treated as bare base64 JPEG.
func DecodeDataURL(s string) ([]byte, string, error) {
	mime := defaultImageMIME
	if m := dataURLPrefix.FindStringSubmatch(s); m != nil {
		if m[1] != "" {
			mime = m[1]
		}
		s = s[len(m[0]):]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return data, mime, nil
}
