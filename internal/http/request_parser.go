// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"pmtrack/internal/calendar"
	"pmtrack/internal/core"
	"pmtrack/internal/services"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseEntryInput reads unit_id, task_id, hours and date from the body.
func ParseEntryInput(p *RequestBodyParser) (services.NewEntry, error) {
	var in services.NewEntry
	var err error

	if in.UnitID, err = parseID(p.Get("unit_id"), "unit_id"); err != nil {
		return in, err
	}
	if in.TaskID, err = parseID(p.Get("task_id"), "task_id"); err != nil {
		return in, err
	}
	if in.Amount, err = core.ParseHours(p.Get("hours")); err != nil {
		return in, err
	}
	if in.DateOfWork, err = ParseDay(p.Get("date")); err != nil {
		return in, err
	}
	return in, nil
}

// ParseDay accepts a DD/MM/YYYY token or an ISO YYYY-MM-DD date.
func ParseDay(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, fmt.Errorf("date is required: %w", core.ErrInvalidArgument)
	}
	if strings.Contains(s, "/") {
		tok, err := calendar.ParseDateToken(s)
		if err != nil {
			return core.Date{}, err
		}
		return tok.Date, nil
	}
	return core.ParseISODate(s)
}

// ParseYear parses a path or query year.
func ParseYear(s string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("year %q is not a number: %w", s, core.ErrInvalidArgument)
	}
	return year, nil
}

func parseID(s, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer: %w", name, core.ErrInvalidArgument)
	}
	return id, nil
}
