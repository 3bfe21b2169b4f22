package anki

import (
	"fmt"
	"strings"
)

// Role is the kind of content a note field receives.
type Role string

const (
	RoleAudio      Role = "audio"
	RoleDefinition Role = "definition"
	RoleExpression Role = "expression"
	RoleReading    Role = "reading"
	RoleSentence   Role = "sentence"
)

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAudio, RoleDefinition, RoleExpression, RoleReading, RoleSentence:
		return r, nil
	}
	return "", fmt.Errorf("unknown field role %q", s)
}

// FieldRole binds a note field name to a role.
type FieldRole struct {
	Name string
	Role Role
}

// FieldMapping is the ordered list of note fields to fill.
type FieldMapping []FieldRole

// NewFieldMapping pairs field names with role names.
func NewFieldMapping(names, roles []string) (FieldMapping, error) {
	if len(names) != len(roles) {
		return nil, fmt.Errorf("%d field names but %d roles", len(names), len(roles))
	}
	m := make(FieldMapping, 0, len(names))
	for i, n := range names {
		r, err := ParseRole(roles[i])
		if err != nil {
			return nil, err
		}
		m = append(m, FieldRole{Name: n, Role: r})
	}
	return m, nil
}

// Fields returns the names of the fields with role r.
func (m FieldMapping) Fields(r Role) []string {
	var out []string
	for _, f := range m {
		if f.Role == r {
			out = append(out, f.Name)
		}
	}
	return out
}

// Field returns the first field with role r.
func (m FieldMapping) Field(r Role) (string, bool) {
	for _, f := range m {
		if f.Role == r {
			return f.Name, true
		}
	}
	return "", false
}

// Options are the addNote duplicate options.
type Options struct {
	AllowDuplicate bool   `json:"allowDuplicate"`
	DuplicateScope string `json:"duplicateScope"`
}

// skipHash makes Anki drop the placeholder file languagepod101 serves when
// it has no recording.
const skipHash = "7e2c2f954ef6051373ba916f000168dc"

// Audio is a remote sound file attached to note fields.
type Audio struct {
	URL      string   `json:"url"`
	Filename string   `json:"filename"`
	SkipHash string   `json:"skipHash,omitempty"`
	Fields   []string `json:"fields"`
}

// Note is the addNote payload.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Options   Options           `json:"options"`
	Tags      []string          `json:"tags"`
	Audio     []Audio           `json:"audio"`

	// Expression identifies the note in errors and logs.
	Expression string `json:"-"`
}

// Card is the content synthesized for one expression.
type Card struct {
	Expression string
	Reading    string
	Definition string
	Sentence   string
	Audio      []Audio // URL and Filename only
}

// NoteTemplate turns Cards into Notes for one deck and note type.
type NoteTemplate struct {
	DeckName        string
	ModelName       string
	AllowDuplicates bool
	DuplicateScope  string
	Audio           bool
	Fields          FieldMapping
	Tags            []string
}

// Note builds the payload for c. An empty reading falls back to the
// expression. Audio fields are left empty and receive the sound files, which
// are only attached when t.Audio is set.
func (t NoteTemplate) Note(c Card) Note {
	reading := c.Reading
	if reading == "" {
		reading = c.Expression
	}
	fields := make(map[string]string, len(t.Fields))
	for _, f := range t.Fields {
		switch f.Role {
		case RoleDefinition:
			fields[f.Name] = c.Definition
		case RoleExpression:
			fields[f.Name] = c.Expression
		case RoleReading:
			fields[f.Name] = reading
		case RoleSentence:
			fields[f.Name] = c.Sentence
		default:
			fields[f.Name] = ""
		}
	}

	audio := []Audio{}
	if t.Audio {
		audioFields := t.Fields.Fields(RoleAudio)
		if audioFields == nil {
			audioFields = []string{}
		}
		for _, a := range c.Audio {
			audio = append(audio, Audio{URL: a.URL, Filename: a.Filename, SkipHash: skipHash, Fields: audioFields})
		}
	}

	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return Note{
		DeckName:   t.DeckName,
		ModelName:  t.ModelName,
		Fields:     fields,
		Options:    Options{AllowDuplicate: t.AllowDuplicates, DuplicateScope: t.DuplicateScope},
		Tags:       tags,
		Audio:      audio,
		Expression: c.Expression,
	}
}
