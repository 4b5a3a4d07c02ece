// Package http serves the budget over a JSON API.
//
// This file implements utilities for parsing and validating request data.
// Command bodies may be JSON or form-encoded; amounts are decimal strings
// or numbers in major units, dates are YYYY-MM-DD.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"budgie/internal/core"
)

// maxBodyBytes bounds command bodies.
const maxBodyBytes = 64 << 10

// ParseDateQuery reads an optional date query parameter, falling back to def.
func ParseDateQuery(query url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// ParseOptionalDateQuery is ParseDateQuery without a default.
func ParseOptionalDateQuery(query url.Values, key string) (*core.Date, error) {
	if strings.TrimSpace(query.Get(key)) == "" {
		return nil, nil
	}
	d, err := ParseDateQuery(query, key, core.Date{})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
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

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a trimmed string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was sent, even as null or empty.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// Required returns key's value or an error naming the missing field.
func (p *RequestBodyParser) Required(key string) (string, error) {
	v := p.Get(key)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", core.ErrEmptyName, key)
	}
	return v, nil
}

// Date reads a YYYY-MM-DD field, defaulting to def when absent.
func (p *RequestBodyParser) Date(key string, def core.Date) (core.Date, error) {
	v := p.Get(key)
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Amount reads a decimal amount in major units.
func (p *RequestBodyParser) Amount(key string) (core.Money, error) {
	v := p.Get(key)
	if v == "" {
		return core.Money{}, fmt.Errorf("%w: %s is required", core.ErrInvalidAmount, key)
	}
	return core.ParseAmount(v)
}

// OptionalAmount reads an amount that may be null or absent.
func (p *RequestBodyParser) OptionalAmount(key string) (*core.Money, error) {
	v := p.Get(key)
	if v == "" || v == "null" {
		return nil, nil
	}
	m, err := core.ParseAmount(v)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Int reads an integer field, defaulting to def when absent.
func (p *RequestBodyParser) Int(key string, def int) (int, error) {
	v := p.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer: %q", key, v)
	}
	return n, nil
}

// Itemization reads the amounts of a transaction. JSON bodies may send an
// object of key to amount; otherwise the value uses the "key=amount,..."
// syntax, where a bare amount is unallocated.
func (p *RequestBodyParser) Itemization(key string) (core.Itemization, error) {
	if p.jsonData != nil {
		if obj, ok := p.jsonData[key].(map[string]any); ok {
			return itemizationFromObject(obj)
		}
	}
	v := p.Get(key)
	if v == "" {
		return nil, core.ErrEmptyTransaction
	}
	return core.ParseItemization(v)
}

func itemizationFromObject(obj map[string]any) (core.Itemization, error) {
	if len(obj) == 0 {
		return nil, core.ErrEmptyTransaction
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(core.Itemization, len(obj))
	for _, k := range keys {
		m, err := core.ParseAmount(stringValue(obj[k]))
		if err != nil {
			return nil, fmt.Errorf("amount for %q: %w", k, err)
		}
		out[k] = out[k].Add(m)
	}
	return out, nil
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON scalar to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return "null"
	default:
		return ""
	}
}
