package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseEntityKind(t *testing.T) {
	tests := []struct {
		input string
		want  EntityKind
	}{
		{"service", KindService},
		{"services", KindService},
		{" Providers ", KindProvider},
		{"categories", KindCategory},
		{"accessibility", KindAccessibility},
		{"articles", KindArticle},
		{"section", KindSection},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEntityKind(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParseEntityKind_Unknown(t *testing.T) {
	_, err := ParseEntityKind("country")
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestParseEntityKinds(t *testing.T) {
	kinds, err := ParseEntityKinds([]string{"services", "", "provider"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]EntityKind{KindService, KindProvider}, kinds); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}

	_, err = ParseEntityKinds([]string{"service", "services"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for duplicates, got %v", err)
	}
}

func TestEntity_UnmarshalJSON(t *testing.T) {
	raw := `{"id": 7, "status": "published", "date_created": "2024-01-01T00:00:00Z", "date_updated": 1704153600000, "name": {"en-US": "Clinic"}}`

	var e Entity
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Entity{
		ID:          7,
		Status:      "published",
		DateCreated: 1704067200000,
		DateUpdated: 1704153600000,
	}
	if diff := cmp.Diff(want, e, cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".Payload"
	}, cmp.Ignore())); diff != "" {
		t.Errorf("entity mismatch (-want +got):\n%s", diff)
	}

	var name map[string]string
	if err := e.Field("name", &name); err != nil {
		t.Fatalf("Field: %v", err)
	}
	if name["en-US"] != "Clinic" {
		t.Errorf("expected Clinic, got %q", name["en-US"])
	}
	if err := e.Field("missing", &name); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEntity_UnmarshalJSON_ZendeskTimestamps(t *testing.T) {
	raw := `{"id": "360001", "created_at": "2023-05-01T10:00:00Z", "updated_at": "2023-06-01T10:00:00Z"}`

	e, err := DecodeEntity([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID != 360001 {
		t.Errorf("expected id 360001, got %d", e.ID)
	}
	if e.DateUpdated == 0 || e.DateCreated == 0 {
		t.Error("expected zendesk timestamps to populate date fields")
	}
	if e.Watermark() != e.DateUpdated {
		t.Errorf("expected watermark to be updated_at")
	}
}

func TestEntity_UnmarshalJSON_MissingID(t *testing.T) {
	_, err := DecodeEntity([]byte(`{"name": "x"}`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEntity_MarshalJSON_RoundTrip(t *testing.T) {
	raw := `{"id":1,"date_updated":200,"name":"updated"}`

	e, err := DecodeEntity([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != raw {
		t.Errorf("expected payload to round trip, got %s", data)
	}
}

func TestEntity_MarshalJSON_WithoutPayload(t *testing.T) {
	e := &Entity{ID: 3, DateUpdated: 10}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := DecodeEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != 3 || decoded.DateUpdated != 10 {
		t.Errorf("unexpected decoded entity: %+v", decoded)
	}
}

func TestEntity_Watermark(t *testing.T) {
	tests := []struct {
		name string
		e    Entity
		want Timestamp
	}{
		{"updated newer", Entity{DateCreated: 100, DateUpdated: 200}, 200},
		{"never updated", Entity{DateCreated: 100}, 100},
		{"empty", Entity{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Watermark(); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestMaxWatermark(t *testing.T) {
	entities := []*Entity{
		{ID: 1, DateUpdated: 100},
		nil,
		{ID: 2, DateCreated: 150},
		{ID: 3, DateUpdated: 120, DateCreated: 90},
	}
	if got := MaxWatermark(entities); got != 150 {
		t.Errorf("expected 150, got %d", got)
	}
	if got := MaxWatermark(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %d", got)
	}
}

func TestEntity_SameAsAndClone(t *testing.T) {
	a, _ := DecodeEntity([]byte(`{"id":1,"name":"a"}`))
	b, _ := DecodeEntity([]byte(`{"id": 1, "name": "a"}`))
	c, _ := DecodeEntity([]byte(`{"id":1,"name":"c"}`))

	if !a.SameAs(b) {
		t.Error("expected compacted payloads to compare equal")
	}
	if a.SameAs(c) {
		t.Error("expected different payloads to differ")
	}
	if a.SameAs(nil) {
		t.Error("expected nil to differ")
	}

	clone := a.Clone()
	clone.Payload[0] = ' '
	if a.Payload[0] != '{' {
		t.Error("expected clone to own its payload")
	}
}

func TestSnapshot_ActiveAndFind(t *testing.T) {
	snap := Snapshot{
		Entities: map[EntityKind][]*Entity{
			KindService: {
				{ID: 1, Status: "published"},
				{ID: 2, Status: StatusArchived},
			},
		},
	}

	if snap.Count(KindService) != 2 {
		t.Errorf("expected count 2, got %d", snap.Count(KindService))
	}
	active := snap.Active(KindService)
	if len(active) != 1 || active[0].ID != 1 {
		t.Errorf("expected only service 1 active, got %+v", active)
	}
	if _, ok := snap.Find(KindService, 2); !ok {
		t.Error("expected archived service to remain findable")
	}
	if _, ok := snap.Find(KindProvider, 1); ok {
		t.Error("did not expect provider 1")
	}
	if diff := cmp.Diff(map[EntityKind]int{KindService: 2}, snap.Counts()); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}
