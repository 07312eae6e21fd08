package export

import (
	"bytes"
	"strings"
	"testing"

	"mapcreator/api/internal/project"
)

func exportDocument() *project.Document {
	doc := project.Default()
	loc, _ := doc.AddLocation(project.NewLocationInput{Name: "Warehouse A", Latitude: "52.1", Longitude: "5.1"})
	doc.SetCustomValue(loc.ID, "1", "Operational")
	doc.SetLabelOffset(loc.ID, 120, 80)
	other, _ := doc.AddLocation(project.NewLocationInput{Name: "Depot", Latitude: "51.9", Longitude: "4.5", Type: project.TypeSimple})
	doc.AddConnection(loc.ID, other.ID)
	return doc
}

func TestGenerateHTMLIsDeterministic(t *testing.T) {
	doc := exportDocument()

	first, err := GenerateHTML(doc)
	if err != nil {
		t.Fatalf("GenerateHTML failed: %v", err)
	}
	second, err := GenerateHTML(doc)
	if err != nil {
		t.Fatalf("GenerateHTML failed: %v", err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Error("same document produced different pages")
	}
}

func TestGenerateHTMLContent(t *testing.T) {
	doc := exportDocument()
	doc.SetTheme(project.ThemeDark)

	result, err := GenerateHTML(doc)
	if err != nil {
		t.Fatalf("GenerateHTML failed: %v", err)
	}
	if result.Filename != "interactive_map.html" || result.MimeType != "text/html; charset=utf-8" {
		t.Errorf("result metadata wrong: %+v", result)
	}

	html := string(result.Data)
	for _, want := range []string{
		"leaflet@1.9.4/dist/leaflet.js",
		"leaflet-polylinedecorator@1.6.0",
		"Warehouse A",
		`"labelOffset":{"x":120,"y":80}`,
		project.Themes[project.ThemeDark].URL,
		"containerPointToLatLng",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestGenerateHTMLUnknownThemeFallsBack(t *testing.T) {
	doc := exportDocument()
	doc.MapTheme = project.MapTheme("midnight")

	result, err := GenerateHTML(doc)
	if err != nil {
		t.Fatalf("GenerateHTML failed: %v", err)
	}
	if !strings.Contains(string(result.Data), project.Themes[project.ThemeLight].URL) {
		t.Error("unknown theme should fall back to the light tile source")
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	got := percentEncodeForDataURL("a b&c")
	if got != "a%20b%26c" {
		t.Errorf("encoded = %q", got)
	}
}
