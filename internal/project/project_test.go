package project

import (
	"encoding/json"
	"reflect"
	"testing"
)

func sampleDocument() *Document {
	return &Document{
		CustomFields: []CustomField{
			{ID: "f1", Name: "Status"},
			{ID: "f2", Name: "Afbeelding URL"},
			{ID: "f3", Name: "Omschrijving"},
		},
		Locations: []Location{
			{
				ID: "loc-1", Name: "Warehouse A", Type: TypeDetailed,
				Latitude: 52.0, Longitude: 5.0,
				CustomData:  map[string]string{"f1": "Open", "f3": "Multi\nline"},
				Style:       LocationStyle{Color: "#ff0000", Shape: ShapeSquare, Icon: IconBuilding},
				LabelOffset: &LabelOffset{X: 412.5, Y: 188},
			},
			{
				ID: "loc-2", Name: "Dock", Type: TypeSimple,
				Latitude: 52.1, Longitude: 5.2,
				CustomData: map[string]string{},
			},
		},
		Connections: []Connection{{ID: "c1", From: "loc-1", To: "loc-2"}},
		MapTheme:    ThemeDark,
		MapCenter:   [2]float64{52.0907, 5.1214},
		MapZoom:     8.75,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	doc := sampleDocument()
	data, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(doc, decoded) {
		t.Errorf("round trip changed the document:\nbefore: %+v\nafter:  %+v", doc, decoded)
	}
}

func TestEncodeUsesClientFieldNames(t *testing.T) {
	data, err := sampleDocument().Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	for _, key := range []string{"customFields", "locations", "connections", "mapTheme", "mapCenter", "mapZoom"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}

	var locs []map[string]json.RawMessage
	if err := json.Unmarshal(raw["locations"], &locs); err != nil {
		t.Fatalf("unmarshal locations: %v", err)
	}
	if _, ok := locs[0]["labelOffset"]; !ok {
		t.Error("dragged location lost its labelOffset")
	}
	if _, ok := locs[1]["labelOffset"]; ok {
		t.Error("undragged location serialized a labelOffset")
	}
}

func TestRemoveLocationCascadesConnections(t *testing.T) {
	doc := sampleDocument()
	if _, err := doc.AddConnection("loc-2", "loc-1"); err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}
	third, err := doc.AddLocation(NewLocationInput{Name: "Depot", Latitude: "51.9", Longitude: "4.4"})
	if err != nil {
		t.Fatalf("AddLocation failed: %v", err)
	}
	unrelated, err := doc.AddConnection("loc-2", third.ID)
	if err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}

	if err := doc.RemoveLocation("loc-1"); err != nil {
		t.Fatalf("RemoveLocation failed: %v", err)
	}
	if doc.FindLocation("loc-1") != nil {
		t.Fatal("location still present after removal")
	}
	if len(doc.Connections) != 1 || doc.Connections[0].ID != unrelated.ID {
		t.Errorf("cascade removed the wrong connections: %+v", doc.Connections)
	}
}

func TestAddLocationScenario(t *testing.T) {
	doc := Default()
	loc, err := doc.AddLocation(NewLocationInput{
		Name: "Warehouse A", Type: TypeDetailed,
		Latitude: "52.0", Longitude: "5.0",
		Color: "#ff0000", Shape: ShapeSquare, Icon: IconBuilding,
	})
	if err != nil {
		t.Fatalf("AddLocation failed: %v", err)
	}
	if loc.ID == "" {
		t.Error("no id generated")
	}
	if len(loc.CustomData) != 0 {
		t.Errorf("expected empty customData, got %v", loc.CustomData)
	}
	if loc.LabelOffset != nil {
		t.Error("fresh location has a labelOffset")
	}

	field, err := doc.AddCustomField("Capacity")
	if err != nil {
		t.Fatalf("AddCustomField failed: %v", err)
	}
	if err := doc.SetCustomValue(loc.ID, field.ID, "500"); err != nil {
		t.Fatalf("SetCustomValue failed: %v", err)
	}
	if got := doc.FindLocation(loc.ID).CustomData[field.ID]; got != "500" {
		t.Errorf("customData[%s] = %q, want 500", field.ID, got)
	}

	if _, err := doc.AddConnection(loc.ID, loc.ID); err == nil {
		t.Error("self connection allowed")
	}
	if err := doc.RemoveLocation(loc.ID); err != nil {
		t.Fatalf("RemoveLocation failed: %v", err)
	}
	if len(doc.Locations) != 0 || len(doc.Connections) != 0 {
		t.Errorf("document not clean after removal: %d locations, %d connections", len(doc.Locations), len(doc.Connections))
	}
}

func TestAddLocationValidation(t *testing.T) {
	doc := Default()
	if _, err := doc.AddLocation(NewLocationInput{Latitude: "52", Longitude: "5"}); err != ErrNameRequired {
		t.Errorf("missing name: got %v, want ErrNameRequired", err)
	}
	if _, err := doc.AddLocation(NewLocationInput{Name: "X", Latitude: "abc", Longitude: "5"}); err != ErrCoordsRequired {
		t.Errorf("bad latitude: got %v, want ErrCoordsRequired", err)
	}
	if _, err := doc.AddLocation(NewLocationInput{Name: "X", Latitude: "52"}); err != ErrCoordsRequired {
		t.Errorf("missing longitude: got %v, want ErrCoordsRequired", err)
	}

	simple, err := doc.AddLocation(NewLocationInput{
		Name: "Label", Type: TypeSimple, Latitude: "52", Longitude: "5",
		Color: "#123456", CustomData: map[string]string{"1": "ignored"},
	})
	if err != nil {
		t.Fatalf("AddLocation failed: %v", err)
	}
	if len(simple.CustomData) != 0 || simple.Style.Color != "" {
		t.Errorf("SIMPLE location kept style or data: %+v", simple)
	}
}

func TestParseCoords(t *testing.T) {
	cases := []struct {
		input string
		lat   float64
		lng   float64
		ok    bool
	}{
		{"51.689, 5.301", 51.689, 5.301, true},
		{" 52.0 ,5 ", 52.0, 5, true},
		{"-33.86,151.21", -33.86, 151.21, true},
		{"51.689", 0, 0, false},
		{"51.689, abc", 0, 0, false},
		{"a, b", 0, 0, false},
		{"1,2,3", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		lat, lng, ok := ParseCoords(tc.input)
		if ok != tc.ok || lat != tc.lat || lng != tc.lng {
			t.Errorf("ParseCoords(%q) = (%v, %v, %v), want (%v, %v, %v)", tc.input, lat, lng, ok, tc.lat, tc.lng, tc.ok)
		}
	}
}

func TestMoveLocation(t *testing.T) {
	doc := &Document{Locations: []Location{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	if err := doc.MoveLocation("a", "c"); err != nil {
		t.Fatalf("MoveLocation failed: %v", err)
	}
	got := []string{doc.Locations[0].ID, doc.Locations[1].ID, doc.Locations[2].ID}
	want := []string{"b", "c", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order after move = %v, want %v", got, want)
	}
	if err := doc.MoveLocation("c", "b"); err != nil {
		t.Fatalf("MoveLocation failed: %v", err)
	}
	if doc.Locations[0].ID != "c" || doc.Locations[1].ID != "b" {
		t.Errorf("order after second move = %+v", doc.Locations)
	}
	if err := doc.MoveLocation("missing", "b"); err != ErrUnknownLocation {
		t.Errorf("unknown id: got %v, want ErrUnknownLocation", err)
	}
}

func TestFieldClassification(t *testing.T) {
	fields := []CustomField{
		{ID: "1", Name: "Status"},
		{ID: "2", Name: "Hero IMAGE link"},
		{ID: "3", Name: "ACTIES"},
	}
	if f := ImageField(fields); f == nil || f.ID != "2" {
		t.Errorf("ImageField = %+v, want id 2", f)
	}
	if f := DescriptionField(fields); f == nil || f.ID != "3" {
		t.Errorf("DescriptionField = %+v, want id 3", f)
	}
	if f := DescriptionField(fields[:2]); f != nil {
		t.Errorf("DescriptionField without match = %+v, want nil", f)
	}

	loc := &Location{CustomData: map[string]string{"1": "Open", "2": "  ", "3": "Do things"}}
	regular, desc := PopulatedFields(fields, loc)
	if len(regular) != 1 || regular[0].ID != "1" {
		t.Errorf("regular fields = %+v", regular)
	}
	if desc == nil || desc.ID != "3" {
		t.Errorf("description field = %+v", desc)
	}
}

func TestRemoveCustomFieldStripsValues(t *testing.T) {
	doc := sampleDocument()
	if err := doc.RemoveCustomField("f1"); err != nil {
		t.Fatalf("RemoveCustomField failed: %v", err)
	}
	if _, ok := doc.Locations[0].CustomData["f1"]; ok {
		t.Error("location still carries a value for the removed field")
	}
	if len(doc.CustomFields) != 2 {
		t.Errorf("custom fields = %+v", doc.CustomFields)
	}
}

func TestSetCustomValueEmptyRemovesKey(t *testing.T) {
	doc := sampleDocument()
	if err := doc.SetCustomValue("loc-1", "f1", "   "); err != nil {
		t.Fatalf("SetCustomValue failed: %v", err)
	}
	if _, ok := doc.Locations[0].CustomData["f1"]; ok {
		t.Error("empty value should remove the key")
	}
	if err := doc.SetCustomValue("loc-1", "nope", "x"); err != ErrUnknownField {
		t.Errorf("unknown field: got %v, want ErrUnknownField", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	doc := sampleDocument()
	clone := doc.Clone()
	clone.Locations[0].CustomData["f1"] = "changed"
	clone.Locations[0].LabelOffset.X = 1
	clone.Connections[0].From = "other"
	if doc.Locations[0].CustomData["f1"] == "changed" {
		t.Error("clone shares customData map")
	}
	if doc.Locations[0].LabelOffset.X == 1 {
		t.Error("clone shares labelOffset")
	}
	if doc.Connections[0].From == "other" {
		t.Error("clone shares connections")
	}
}
