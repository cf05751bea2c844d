package beer

import (
	"encoding/json"
	"testing"
	"time"
)

func TestItemPersisted(t *testing.T) {
	if (Item{}).Persisted() {
		t.Fatalf("empty item should not be persisted")
	}
	if (Item{ID: "  "}).Persisted() {
		t.Fatalf("blank id should not be persisted")
	}
	if !(Item{ID: "5fd0"}).Persisted() {
		t.Fatalf("item with id should be persisted")
	}
}

func TestItemStampOverwritesCreationDate(t *testing.T) {
	item := Item{Name: "IPA", CreationDate: "1/1/2020"}
	stamped := item.Stamp(time.Date(2026, time.October, 18, 15, 4, 5, 0, time.UTC))
	if stamped.CreationDate != "10/18/2026" {
		t.Fatalf("CreationDate = %q, want 10/18/2026", stamped.CreationDate)
	}
	if item.CreationDate != "1/1/2020" {
		t.Fatalf("Stamp mutated receiver: %q", item.CreationDate)
	}
}

func TestItemCloneDetachesPointers(t *testing.T) {
	alt := 120.0
	item := Item{
		Photo:    &Photo{Filepath: "a.jpeg"},
		Location: &Location{Coords: Coordinates{Latitude: 46.77, Altitude: &alt}},
	}
	dup := item.Clone()
	dup.Photo.Filepath = "b.jpeg"
	dup.Location.Coords.Latitude = 0
	*dup.Location.Coords.Altitude = 0

	if item.Photo.Filepath != "a.jpeg" || item.Location.Coords.Latitude != 46.77 || *item.Location.Coords.Altitude != 120 {
		t.Fatalf("Clone shares pointers with original: %#v", item)
	}
}

func TestItemJSONUsesBackendFieldNames(t *testing.T) {
	raw := `{"_id":"7","name":"Stout","price":8.5,"creationDate":"3/4/2021","favorite":true,
		"photo":{"filepath":"1.jpeg","webviewPath":"data:image/jpeg;base64,AA=="},
		"location":{"coords":{"latitude":46.77,"longitude":23.59,"accuracy":12},"timestamp":1600000000000}}`
	var item Item
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if item.ID != "7" || item.Price != 8.5 || !item.Favorite {
		t.Fatalf("item = %#v", item)
	}
	if item.Photo == nil || item.Photo.Filepath != "1.jpeg" {
		t.Fatalf("photo = %#v", item.Photo)
	}
	if item.Location == nil || item.Location.CapturedAt().UnixMilli() != 1600000000000 {
		t.Fatalf("location = %#v", item.Location)
	}

	out, err := json.Marshal(Item{Name: "new"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"name":"new","price":0,"favorite":false}` {
		t.Fatalf("Marshal = %s, want no _id for unsaved item", out)
	}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"plain", "46.77,23.59", 46.77, 23.59, false},
		{"spaces", "  -33.9 , 151.2 ", -33.9, 151.2, false},
		{"missing part", "46.77", 0, 0, true},
		{"not a number", "abc,1", 0, 0, true},
		{"latitude out of range", "91,0", 0, 0, true},
		{"longitude out of range", "0,181", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lng, err := ParseCoordinates(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCoordinates(%q) returned nil error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCoordinates(%q) error = %v", tt.input, err)
			}
			if lat != tt.lat || lng != tt.lng {
				t.Fatalf("ParseCoordinates(%q) = %v,%v want %v,%v", tt.input, lat, lng, tt.lat, tt.lng)
			}
		})
	}
}

func TestLocationHelpers(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	loc := NewLocation(46.770439, 23.591423, 5, at)
	if !loc.CapturedAt().Equal(at) {
		t.Fatalf("CapturedAt = %v, want %v", loc.CapturedAt(), at)
	}
	if loc.String() != "46.77044,23.59142" {
		t.Fatalf("String = %q", loc.String())
	}
	if !(Location{}).CapturedAt().IsZero() {
		t.Fatalf("zero location should report zero time")
	}
}

func TestNotificationMerges(t *testing.T) {
	for typ, want := range map[string]bool{
		NotificationCreated: true,
		NotificationUpdated: true,
		"deleted":           false,
		"":                  false,
	} {
		if got := (Notification{Type: typ}).Merges(); got != want {
			t.Fatalf("Merges(%q) = %v, want %v", typ, got, want)
		}
	}
}
