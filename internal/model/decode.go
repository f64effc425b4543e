package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError reports a value that does not fit the profile schema or a
// known enumeration.
type ValidationError struct {
	Subject string
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Subject, strings.Join(e.Reasons, "; "))
}

const profileSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": ["string", "null"]},
		"phone": {"type": ["string", "null"]},
		"income": {"type": ["number", "null"]},
		"incomePeriod": {"type": ["string", "null"]},
		"familySize": {"type": ["integer", "null"]},
		"occupation": {"type": ["string", "null"]},
		"education": {"type": ["string", "null"]},
		"employmentStatus": {"type": ["string", "null"]},
		"category": {"type": ["string", "null"]},
		"documents": {"type": ["object", "null"]},
		"permAddress": {"type": ["object", "null"]},
		"activeApplications": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"schemeName": {"type": "string"},
					"refNumber": {"type": "string"},
					"dateApplied": {"type": "string"},
					"status": {"type": "string"}
				}
			}
		},
		"reminders": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"required": ["id", "schemeName"],
				"properties": {
					"id": {"type": "string"},
					"schemeName": {"type": "string"},
					"documentsNeeded": {"type": ["array", "null"], "items": {"type": "string"}},
					"savedDate": {"type": "string"}
				}
			}
		}
	}
}`

var profileSchemaLoader = gojsonschema.NewStringLoader(profileSchema)

// DecodeProfile validates raw stored JSON against the profile schema and
// unmarshals it. Any failure is a *ValidationError; callers treat it as an
// absent record.
func DecodeProfile(data []byte) (*Profile, error) {
	if !json.Valid(data) {
		return nil, &ValidationError{Subject: "profile", Reasons: []string{"malformed JSON"}}
	}

	result, err := gojsonschema.Validate(profileSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &ValidationError{Subject: "profile", Reasons: []string{err.Error()}}
	}
	if !result.Valid() {
		reasons := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			reasons[i] = desc.String()
		}
		return nil, &ValidationError{Subject: "profile", Reasons: reasons}
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &ValidationError{Subject: "profile", Reasons: []string{err.Error()}}
	}
	if p.Reminders == nil {
		p.Reminders = []Reminder{}
	}
	return &p, nil
}
