// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request data:
// month/year query parameters, path ids and JSON bodies.

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
	"time"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var ErrInvalidID = errors.New("invalid id")

// MonthParams holds the month a read endpoint reports on.
type MonthParams struct {
	Year  int
	Month time.Month
}

// ParseMonthParams extracts year and month from query parameters. A
// missing or invalid value falls back to the month of now.
func ParseMonthParams(query url.Values, now time.Time) MonthParams {
	params := MonthParams{
		Year:  now.Year(),
		Month: now.Month(),
	}

	if y, ok := intParam(query, "year"); ok && y >= 1 && y <= 9999 {
		params.Year = y
	}
	if m, ok := intParam(query, "month"); ok && m >= 1 && m <= 12 {
		params.Month = time.Month(m)
	}
	return params
}

// ParseBoundedInt reads key from query, falling back to def when it is
// missing or unparseable and clamping it to [min, max].
func ParseBoundedInt(query url.Values, key string, def, min, max int) int {
	v, ok := intParam(query, key)
	if !ok {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func intParam(query url.Values, key string) (int, bool) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// PathID parses the positive integer path value name.
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

// DecodeJSON reads exactly one JSON value from the request body into v.
// Every failure wraps ErrMalformedBody.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedBody)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON value", ErrMalformedBody)
	}
	return nil
}

// amountField accepts an amount either as a JSON number or as a string,
// so "12,50" typed by a user is read the same way as 12.5.
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or a string")
	}
	*a = amountField(n.String())
	return nil
}
