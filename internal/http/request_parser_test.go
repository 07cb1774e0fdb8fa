package http

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"pmtrack/internal/core"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"unit_id": 3, "task_id": "2", "hours": 7.5, "date": "03/01/2024"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !p.IsJSON() {
		t.Error("IsJSON() should return true")
	}
	if got := p.Get("unit_id"); got != "3" {
		t.Errorf("Get(unit_id) = %q, want %q", got, "3")
	}
	if got := p.Get("hours"); got != "7.5" {
		t.Errorf("Get(hours) = %q, want %q", got, "7.5")
	}
	if got := p.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "unit_id=4&hours=7%2C5&date=2024-01-03&note=%20spaced%01%20"
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if p.IsJSON() {
		t.Error("IsJSON() should return false for form data")
	}
	if got := p.Get("hours"); got != "7,5" {
		t.Errorf("Get(hours) = %q, want %q", got, "7,5")
	}
	if got := p.Get("note"); got != "spaced" {
		t.Errorf("Get(note) = %q, want control characters and spaces removed", got)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(""))

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := p.Get("anything"); got != "" {
		t.Errorf("Get() on empty body = %q, want empty", got)
	}
}

func TestRequestBodyParser_BadJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"unit_id":`))

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected an error for truncated JSON")
	}
}

func TestParseEntryInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"valid form", "unit_id=1&task_id=2&hours=7,5&date=03/01/2024", nil},
		{"valid iso date", "unit_id=1&task_id=2&hours=8&date=2024-01-03", nil},
		{"missing unit", "task_id=2&hours=8&date=2024-01-03", core.ErrInvalidArgument},
		{"negative task", "unit_id=1&task_id=-2&hours=8&date=2024-01-03", core.ErrInvalidArgument},
		{"bad hours", "unit_id=1&task_id=2&hours=many&date=2024-01-03", core.ErrInvalidArgument},
		{"missing date", "unit_id=1&task_id=2&hours=8", core.ErrInvalidArgument},
		{"impossible date", "unit_id=1&task_id=2&hours=8&date=31/02/2024", core.ErrMalformedDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			p := NewRequestBodyParser(req)
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			in, err := ParseEntryInput(p)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseEntryInput() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEntryInput() error = %v", err)
			}
			if in.UnitID != 1 || in.TaskID != 2 {
				t.Errorf("ids = %d/%d, want 1/2", in.UnitID, in.TaskID)
			}
			if got := in.DateOfWork.ISO(); got != "2024-01-03" {
				t.Errorf("date = %s, want 2024-01-03", got)
			}
		})
	}
}

func TestParseYear(t *testing.T) {
	if y, err := ParseYear(" 2024 "); err != nil || y != 2024 {
		t.Errorf("ParseYear(2024) = %d, %v", y, err)
	}
	if _, err := ParseYear("twenty"); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("ParseYear(twenty) error = %v, want invalid argument", err)
	}
}
