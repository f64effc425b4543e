package scheme

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/rcliao/welfare-desk/internal/model"
)

// --- Free-text prompts ---

func searchPrompt(query string, lang Language) string {
	return fmt.Sprintf("Find relevant and current Tamil Nadu state government welfare schemes for: %s. "+
		"Focus on BPL/poor families in Tamil Nadu. Respond in %s.", query, lang.Name())
}

func centersPrompt(lat, lng float64, lang Language) string {
	return fmt.Sprintf("Find the nearest E-Sevai centres, Common Service Centres and Tahsildar offices near "+
		"lat: %f, lng: %f in Tamil Nadu. Give their names and approximate locations. Respond in %s.",
		lat, lng, lang.Name())
}

func suggestPrompt(situation string, lang Language) string {
	return fmt.Sprintf("Analyse this citizen's situation against Tamil Nadu state welfare schemes: %s. "+
		"Suggest the schemes that match. Respond in %s.", situation, lang.Name())
}

// --- Structured prompts ---

func grievancePrompt(description string, lang Language) string {
	return fmt.Sprintf(`Analyse this public grievance from a Tamil Nadu citizen: %q.
1. Assign it to one department: Revenue, Housing, Health, Education, Social Welfare, or Food & Consumer Protection.
2. Write a one-sentence formal summary.
3. State the requested action.
4. Rate the urgency as Low, Medium, or High.

Respond in %s as JSON.`, description, lang.Name())
}

func geocodePrompt(lat, lng float64, lang Language) string {
	return fmt.Sprintf(`Translate the coordinates (lat: %f, lng: %f) into a structured Tamil Nadu administrative address.
Return JSON with exactly these fields:
- district: a valid Tamil Nadu district name.
- taluk: a valid Tamil Nadu taluk name.
- village: the local village or area name.
- pincode: the 6-digit postal code.

Use the standard names found in official Tamil Nadu government records. Respond in %s.`, lat, lng, lang.Name())
}

func documentPrompt(docType string, lang Language) string {
	return fmt.Sprintf(`Check this image of a %q.
1. Is it clear and legible?
2. Does it look like the right document type (%q)?
3. Is it issued in Tamil Nadu, where that applies?
Give helpful feedback in %s.
Return JSON: { "isValid": boolean, "feedback": string }`, docType, docType, lang.Name())
}

func eligibilityPrompt(p *model.Profile, schemeName string, lang Language) string {
	return fmt.Sprintf(`Analyse this citizen's profile for the Tamil Nadu state government welfare scheme %q.

Profile (Tamil Nadu resident):
- Name: %s
- Phone: +91 %s
- Annual income: ₹%.0f
- Family members: %s
- Occupation: %s
- Education: %s
- Employment status: %s
- Category: %s

Strictly check whether this resident meets ALL criteria for %q.
Respond in %s as a JSON object with:
- isEligible: boolean
- evaluationReason: string
- potentialBenefits: string
- documentsVerified: string[]`,
		schemeName, p.Name, p.Phone, p.AnnualIncome(), p.FamilySizeLabel(),
		p.Occupation, p.Education, p.EmploymentStatus, p.Category, schemeName, lang.Name())
}

// --- Response schemas ---

func stringProps(names ...string) map[string]*genai.Schema {
	props := make(map[string]*genai.Schema, len(names))
	for _, n := range names {
		props[n] = &genai.Schema{Type: genai.TypeString}
	}
	return props
}

var grievanceSchema = func() *genai.Schema {
	props := stringProps("department", "formalSummary", "requestedAction", "urgency")
	props["urgency"].Description = "Low, Medium, or High"
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   []string{"department", "formalSummary", "requestedAction", "urgency"},
	}
}()

var locationSchema = &genai.Schema{
	Type:       genai.TypeObject,
	Properties: stringProps("district", "taluk", "village", "pincode"),
	Required:   []string{"district", "taluk", "village", "pincode"},
}

var documentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isValid":  {Type: genai.TypeBoolean},
		"feedback": {Type: genai.TypeString},
	},
	Required: []string{"isValid", "feedback"},
}

var eligibilitySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isEligible":        {Type: genai.TypeBoolean},
		"evaluationReason":  {Type: genai.TypeString},
		"potentialBenefits": {Type: genai.TypeString},
		"documentsVerified": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"isEligible", "evaluationReason", "potentialBenefits", "documentsVerified"},
}
