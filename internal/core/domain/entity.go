package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EntityKind is a category of record sharing the same storage and sync treatment.
type EntityKind string

const (
	KindCategory      EntityKind = "category"
	KindPopulation    EntityKind = "population"
	KindAccessibility EntityKind = "accessibility"
	KindProvider      EntityKind = "provider"
	KindService       EntityKind = "service"
	KindSection       EntityKind = "section"
	KindArticle       EntityKind = "article"
)

// StatusArchived marks a record that stays stored but is hidden at read time.
const StatusArchived = "archived"

// AllKinds returns every supported kind.
// Reference tables come first so that services never reference an unknown category.
func AllKinds() []EntityKind {
	return []EntityKind{
		KindCategory,
		KindPopulation,
		KindAccessibility,
		KindProvider,
		KindService,
		KindSection,
		KindArticle,
	}
}

// IsValid reports whether the kind is supported.
func (k EntityKind) IsValid() bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// ParseEntityKind normalises and validates a kind name.
// Plural forms ("services") are accepted since they are what the API paths use.
func ParseEntityKind(s string) (EntityKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	k := EntityKind(s)
	if k.IsValid() {
		return k, nil
	}
	for _, known := range AllKinds() {
		if s == known.Plural() {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ParseEntityKinds parses a list of kind names, rejecting duplicates.
func ParseEntityKinds(names []string) ([]EntityKind, error) {
	kinds := make([]EntityKind, 0, len(names))
	seen := make(map[EntityKind]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		k, err := ParseEntityKind(name)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			return nil, fmt.Errorf("%w: duplicate kind %q", ErrInvalidInput, k)
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Plural returns the collection name used by the content API.
func (k EntityKind) Plural() string {
	switch k {
	case KindCategory:
		return "categories"
	case KindAccessibility:
		return "accessibility"
	default:
		return string(k) + "s"
	}
}

// Entity is a record fetched from the content API.
// Only the identity, timestamps and status are interpreted; everything else
// travels untouched in Payload.
type Entity struct {
	ID          int64           `json:"id"`
	DateCreated Timestamp       `json:"date_created"`
	DateUpdated Timestamp       `json:"date_updated"`
	Status      string          `json:"status,omitempty"`
	Payload     json.RawMessage `json:"-"`
}

// entityHeader holds the fields the sync layer reads.
// Zendesk records use created_at/updated_at instead of the Directus names.
type entityHeader struct {
	ID          json.RawMessage `json:"id"`
	DateCreated Timestamp       `json:"date_created"`
	DateUpdated Timestamp       `json:"date_updated"`
	CreatedAt   Timestamp       `json:"created_at"`
	UpdatedAt   Timestamp       `json:"updated_at"`
	Status      string          `json:"status"`
}

// UnmarshalJSON decodes the header fields and keeps the whole record as payload.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var h entityHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return fmt.Errorf("%w: entity: %v", ErrInvalidInput, err)
	}

	id, err := parseID(h.ID)
	if err != nil {
		return err
	}

	e.ID = id
	e.DateCreated = h.DateCreated
	if e.DateCreated == 0 {
		e.DateCreated = h.CreatedAt
	}
	e.DateUpdated = h.DateUpdated
	if e.DateUpdated == 0 {
		e.DateUpdated = h.UpdatedAt
	}
	e.Status = h.Status

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return fmt.Errorf("%w: entity: %v", ErrInvalidInput, err)
	}
	e.Payload = buf.Bytes()
	return nil
}

// MarshalJSON emits the original payload so records round-trip through any store.
func (e Entity) MarshalJSON() ([]byte, error) {
	if len(e.Payload) > 0 {
		return e.Payload, nil
	}
	type header struct {
		ID          int64     `json:"id"`
		DateCreated Timestamp `json:"date_created"`
		DateUpdated Timestamp `json:"date_updated"`
		Status      string    `json:"status,omitempty"`
	}
	return json.Marshal(header{
		ID:          e.ID,
		DateCreated: e.DateCreated,
		DateUpdated: e.DateUpdated,
		Status:      e.Status,
	})
}

func parseID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("%w: entity without id", ErrInvalidInput)
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("%w: entity id: %v", ErrInvalidInput, err)
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: entity id %s is not an integer", ErrInvalidInput, s)
	}
	return id, nil
}

// Watermark is the newest timestamp carried by the entity.
func (e *Entity) Watermark() Timestamp {
	return MaxTimestamp(e.DateUpdated, e.DateCreated)
}

// Archived reports whether the record should be hidden from readers.
func (e *Entity) Archived() bool {
	return e.Status == StatusArchived
}

// Field decodes a single payload field into dst.
// Returns ErrNotFound when the field is absent.
func (e *Entity) Field(name string, dst any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(e.Payload, &fields); err != nil {
		return fmt.Errorf("%w: payload: %v", ErrInvalidInput, err)
	}
	raw, ok := fields[name]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, dst)
}

// SameAs reports whether both entities carry the same record.
func (e *Entity) SameAs(other *Entity) bool {
	if other == nil {
		return false
	}
	a, errA := e.MarshalJSON()
	b, errB := other.MarshalJSON()
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// Clone returns a deep copy.
func (e *Entity) Clone() *Entity {
	c := *e
	if e.Payload != nil {
		c.Payload = append(json.RawMessage(nil), e.Payload...)
	}
	return &c
}

// DecodeEntity decodes a stored payload back into an entity.
func DecodeEntity(data []byte) (*Entity, error) {
	var e Entity
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// MaxWatermark returns the newest timestamp across the entities, 0 when empty.
// This is the lower bound for the next incremental fetch.
func MaxWatermark(entities []*Entity) Timestamp {
	var max Timestamp
	for _, e := range entities {
		if e == nil {
			continue
		}
		if w := e.Watermark(); w > max {
			max = w
		}
	}
	return max
}
