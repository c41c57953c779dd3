package models

import (
	"testing"
	"time"
)

func TestParsePageRecord_Fields(t *testing.T) {
	rec, err := ParsePageRecord([]byte(`{
		"url": " http://a.org/x.html ",
		"title": "Home",
		"ts": "20240102030405",
		"status": 200,
		"mime": "text/html; charset=utf-8",
		"size": 1024,
		"text": "hello"
	}`))
	if err != nil {
		t.Fatalf("ParsePageRecord() error = %v", err)
	}

	if rec.URL != "http://a.org/x.html" {
		t.Errorf("URL = %q", rec.URL)
	}
	if rec.Status == nil || *rec.Status != 200 {
		t.Errorf("Status = %v, want 200", rec.Status)
	}
	if rec.Mime != "text/html; charset=utf-8" {
		t.Errorf("Mime = %q, want verbatim value", rec.Mime)
	}
	if rec.Size == nil || *rec.Size != 1024 {
		t.Errorf("Size = %v, want 1024", rec.Size)
	}
	if !rec.HasText {
		t.Error("HasText = false, want true")
	}
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", rec.Timestamp, want)
	}
}

func TestParsePageRecord_Aliases(t *testing.T) {
	rec, err := ParsePageRecord([]byte(`{"uri": "http://b.org/", "timestamp": "2024-01-02T03:04:05Z", "content-type": "image/png", "status": "404"}`))
	if err != nil {
		t.Fatalf("ParsePageRecord() error = %v", err)
	}
	if rec.URL != "http://b.org/" || rec.Mime != "image/png" {
		t.Errorf("rec = %+v", rec)
	}
	if rec.Status == nil || *rec.Status != 404 {
		t.Errorf("Status = %v, want 404 from numeric string", rec.Status)
	}
	if !rec.HasTimestamp() {
		t.Error("HasTimestamp() = false for ISO-8601 timestamp")
	}
}

func TestParsePageRecord_DegradesOddFields(t *testing.T) {
	rec, err := ParsePageRecord([]byte(`{"status": "ok", "size": -4, "ts": "not a date", "text": "   ", "url": 42}`))
	if err != nil {
		t.Fatalf("ParsePageRecord() error = %v", err)
	}
	if rec.Status != nil {
		t.Errorf("Status = %v, want nil", *rec.Status)
	}
	if rec.Size != nil {
		t.Errorf("Size = %v, want nil for negative size", *rec.Size)
	}
	if rec.HasTimestamp() {
		t.Error("unparseable timestamp should leave Timestamp zero")
	}
	if rec.RawTimestamp != "not a date" {
		t.Errorf("RawTimestamp = %q", rec.RawTimestamp)
	}
	if rec.HasText {
		t.Error("blank text should not count as extracted text")
	}
	if rec.URL != "42" {
		t.Errorf("URL = %q, want stringified scalar", rec.URL)
	}
}

func TestParsePageRecord_RejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `"http://a.org"`, `null`, `{"url":`} {
		if _, err := ParsePageRecord([]byte(raw)); err == nil {
			t.Errorf("ParsePageRecord(%s) error = nil, want error", raw)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name  string
		in    string
		ok    bool
		equal bool
	}{
		{"compact", "20240501123000", true, true},
		{"rfc3339", "2024-05-01T12:30:00Z", true, true},
		{"rfc3339 offset", "2024-05-01T14:30:00+02:00", true, true},
		{"rfc3339 millis", "2024-05-01T12:30:00.000Z", true, true},
		{"space separated", "2024-05-01 12:30:00", true, true},
		{"empty", "", false, false},
		{"garbage", "yesterday-ish", false, false},
		{"bad compact", "20241399999999", false, false},
		{"compact year zero", "00000101000000", false, false},
		{"colon fragment", "1:", false, false},
		{"slash fragment", "1/", false, false},
		{"day and month only", "1/1", false, false},
		{"dotted quad", "1.1.1.1", false, false},
		{"bare number", "12345", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if tt.equal && !got.Equal(want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, want)
			}
			if ok && got.Location() != time.UTC {
				t.Errorf("ParseTimestamp(%q) location = %v, want UTC", tt.in, got.Location())
			}
		})
	}
}
