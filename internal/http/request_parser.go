// Package http exposes the dashboard services as a JSON API.
//
// This file implements helpers for reading request bodies, path values and
// query parameters into domain values.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bizdash/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// RequestBodyParser reads a JSON object or a form-encoded body once and
// exposes its fields by name.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads up to 1 MiB of the request body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like an object and as form
// values otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}
	if body[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
		}
		return p.err
	}
	p.formData, p.err = url.ParseQuery(string(body))
	return p.err
}

// Has reports whether the field was sent at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	_, ok := p.formData[key]
	return ok
}

// Get returns a trimmed, sanitized string field.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Strings returns a list field: a JSON array, repeated form values, or a
// comma separated string.
func (p *RequestBodyParser) Strings(key string) []string {
	var raw []string
	if p.jsonData != nil {
		switch v := p.jsonData[key].(type) {
		case []any:
			for _, item := range v {
				raw = append(raw, stringValue(item))
			}
		case string:
			raw = strings.Split(v, ",")
		}
	} else if p.formData != nil {
		for _, v := range p.formData[key] {
			raw = append(raw, strings.Split(v, ",")...)
		}
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = sanitizeInput(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Amount parses a money field. Missing or empty fields are zero.
func (p *RequestBodyParser) Amount(key string) (decimal.Decimal, error) {
	s := p.Get(key)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, core.ErrInvalidAmount)
	}
	return d, nil
}

// Int parses an integer field, returning def when it is missing.
func (p *RequestBodyParser) Int(key string, def int) (int, error) {
	s := p.Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", key)
	}
	return n, nil
}

// Bool parses a boolean field, returning def when it is missing. Checkbox
// style "on" counts as true.
func (p *RequestBodyParser) Bool(key string, def bool) (bool, error) {
	s := strings.ToLower(p.Get(key))
	switch s {
	case "":
		return def, nil
	case "on":
		return true, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false", key)
	}
	return b, nil
}

// Date parses a YYYY-MM-DD field. Missing fields give the zero date.
func (p *RequestBodyParser) Date(key string) (core.Date, error) {
	s := p.Get(key)
	if s == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// UUID parses an id field.
func (p *RequestBodyParser) UUID(key string) (uuid.UUID, error) {
	id, err := uuid.Parse(p.Get(key))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a valid id", key)
	}
	return id, nil
}

// fieldErrors collects the first parse failure of a sequence of reads.
type fieldErrors struct {
	err error
}

func (f *fieldErrors) check(err error) {
	if f.err == nil && err != nil {
		f.err = err
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s))
}

var errBadID = errors.New("invalid id")

// pathID parses the named path value as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, errBadID
	}
	return id, nil
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) int {
	if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// parseBody reads and parses the request body, writing a 400 on failure.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return nil, false
	}
	return p, true
}
