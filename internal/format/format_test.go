package format

import (
	"bytes"
	"testing"
)

type sample struct {
	ID      string   `json:"id" yaml:"id"`
	Prereqs []string `json:"prerequisites" yaml:"prerequisites"`
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{}).Write(&buf, sample{ID: "a", Prereqs: []string{"b"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "{\"id\":\"a\",\"prerequisites\":[\"b\"]}\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (YAMLFormatter{}).Write(&buf, sample{ID: "a", Prereqs: []string{"b", "c"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "id: a\nprerequisites:\n  - b\n  - c\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestForName(t *testing.T) {
	for _, name := range []string{"json", "YAML", " yml "} {
		if _, err := ForName(name); err != nil {
			t.Fatalf("ForName(%q): %v", name, err)
		}
	}
	if _, err := ForName("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
