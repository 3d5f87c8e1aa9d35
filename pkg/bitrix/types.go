package bitrix

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/zvilnymo/casecheck/internal/naming"
)

// FlexID decodes Bitrix identifiers, which arrive as "123", 123 or null.
type FlexID int64

// UnmarshalJSON accepts quoted and bare integers.
func (id *FlexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return eris.Wrapf(err, "bitrix: parse id %q", s)
	}
	*id = FlexID(n)
	return nil
}

// Multifield is one entry of a contact's PHONE or EMAIL list.
type Multifield struct {
	Value     string `json:"VALUE"`
	ValueType string `json:"VALUE_TYPE"`
}

// Contact is a crm.contact.list row.
type Contact struct {
	ID         FlexID       `json:"ID"`
	Name       string       `json:"NAME"`
	LastName   string       `json:"LAST_NAME"`
	SecondName string       `json:"SECOND_NAME"`
	Phones     []Multifield `json:"PHONE"`
}

// PersonName returns the contact's name parts.
func (c Contact) PersonName() naming.PersonName {
	return naming.PersonName{Last: c.LastName, First: c.Name, Middle: c.SecondName}
}

// HasPhone reports whether any of the contact's phones has the same digits
// as the canonical phone.
func (c Contact) HasPhone(canonical string) bool {
	want := naming.Digits(canonical)
	for _, p := range c.Phones {
		if naming.Digits(p.Value) == want {
			return true
		}
	}
	return false
}

// Deal is a crm.deal.list row. Custom UF_* fields stay raw in Fields.
type Deal struct {
	ID           FlexID
	Title        string
	StageID      string
	AssignedByID FlexID
	CategoryID   FlexID
	DateCreate   string
	Fields       map[string]json.RawMessage
}

// UnmarshalJSON keeps every field raw and decodes the well-known ones.
func (d *Deal) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return eris.Wrap(err, "bitrix: decode deal")
	}
	var known struct {
		ID           FlexID `json:"ID"`
		Title        string `json:"TITLE"`
		StageID      string `json:"STAGE_ID"`
		AssignedByID FlexID `json:"ASSIGNED_BY_ID"`
		CategoryID   FlexID `json:"CATEGORY_ID"`
		DateCreate   string `json:"DATE_CREATE"`
	}
	if err := json.Unmarshal(b, &known); err != nil {
		return eris.Wrap(err, "bitrix: decode deal")
	}
	*d = Deal{
		ID:           known.ID,
		Title:        known.Title,
		StageID:      known.StageID,
		AssignedByID: known.AssignedByID,
		CategoryID:   known.CategoryID,
		DateCreate:   known.DateCreate,
		Fields:       raw,
	}
	return nil
}

// FieldValues returns a custom field as strings: a scalar yields one
// value, a list yields its items, and null, "" or false yield none.
func (d Deal) FieldValues(name string) []string {
	raw, ok := d.Fields[name]
	if !ok {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string
		for _, item := range list {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := scalarString(raw); s != "" {
		return []string{s}
	}
	return nil
}

// Field returns a custom field joined with ", ", or "".
func (d Deal) Field(name string) string {
	return strings.Join(d.FieldValues(name), ", ")
}

func scalarString(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
	}
	return ""
}

// StageRecord is a crm.stagehistory.list row.
type StageRecord struct {
	ID          FlexID `json:"ID"`
	OwnerID     FlexID `json:"OWNER_ID"`
	StageID     string `json:"STAGE_ID"`
	CategoryID  FlexID `json:"CATEGORY_ID"`
	CreatedTime string `json:"CREATED_TIME"`
}

// Time parses CreatedTime, which Bitrix sends as ISO 8601 with an offset.
func (r StageRecord) Time() (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(r.CreatedTime))
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "bitrix: parse CREATED_TIME %q", r.CreatedTime)
	}
	return ts, nil
}

// User is a user.get row.
type User struct {
	ID         FlexID `json:"ID"`
	Name       string `json:"NAME"`
	LastName   string `json:"LAST_NAME"`
	SecondName string `json:"SECOND_NAME"`
}

// DisplayName joins the non-empty name parts as "First Last Middle".
func (u User) DisplayName() string {
	var parts []string
	for _, p := range []string{u.Name, u.LastName, u.SecondName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

type stageLabel struct {
	StatusID string `json:"STATUS_ID"`
	Name     string `json:"NAME"`
}
