package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"expensetracker/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{"defaults to now", url.Values{}, 2025, 3, false},
		{"explicit", url.Values{"year": {"2024"}, "month": {"12"}}, 2024, 12, false},
		{"month only", url.Values{"month": {" 7 "}}, 2025, 7, false},
		{"out of range is left to services", url.Values{"month": {"13"}}, 2025, 13, false},
		{"garbage year", url.Values{"year": {"abc"}}, 0, 0, true},
		{"garbage month", url.Values{"month": {"x"}}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParams(tt.query, now)
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Errorf("error = %v, want errBadRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMonthParams() error = %v", err)
			}
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("got %+v, want %d/%d", got, tt.wantMonth, tt.wantYear)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"Food"}`, false},
		{"unknown field", `{"name":"Food","extra":1}`, true},
		{"trailing object", `{"name":"a"}{"name":"b"}`, true},
		{"not json", `name=Food`, true},
		{"too large", `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), req, &p)
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Errorf("error = %v, want errBadRequest", err)
				}
				return
			}
			if err != nil || p.Name != "Food" {
				t.Errorf("decodeJSON() = %+v, %v", p, err)
			}
		})
	}
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.raw)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			got, err := parseIDParam(req, "id")
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("parseIDParam(%q) = %d, %v", tt.raw, got, err)
			}
		})
	}
}

func TestParseOptionalIDQuery(t *testing.T) {
	if id, err := parseOptionalIDQuery(url.Values{}, "goal_id"); id != nil || err != nil {
		t.Errorf("empty = %v, %v", id, err)
	}
	if id, err := parseOptionalIDQuery(url.Values{"goal_id": {"7"}}, "goal_id"); err != nil || id == nil || *id != 7 {
		t.Errorf("7 = %v, %v", id, err)
	}
	if _, err := parseOptionalIDQuery(url.Values{"goal_id": {"seven"}}, "goal_id"); !errors.Is(err, errBadRequest) {
		t.Errorf("seven error = %v", err)
	}
}

func TestParseAmounts(t *testing.T) {
	tests := []struct {
		in       string
		optional bool
		want     int64
		wantErr  bool
	}{
		{"12.50", false, 1250, false},
		{"12,5", false, 1250, false},
		{"0.005", false, 1, false},
		{"", false, 0, true},
		{"", true, 0, false},
		{"-4", true, 0, true},
		{"1e3", false, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			parse := parseAmount
			if tt.optional {
				parse = parseOptionalAmount
			}
			got, err := parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidAmount) {
					t.Errorf("error = %v, want ErrInvalidAmount", err)
				}
				return
			}
			if err != nil || got.Cents != tt.want {
				t.Errorf("got %d, %v, want %d", got.Cents, err, tt.want)
			}
		})
	}
}

func TestParseOptionalDate(t *testing.T) {
	d, err := parseOptionalDate("2025-01-13")
	if err != nil || d.String() != "13/01/2025" {
		t.Errorf("parseOptionalDate() = %v, %v", d, err)
	}
	if d, err := parseOptionalDate(""); err != nil || !d.IsZero() {
		t.Errorf("empty = %v, %v", d, err)
	}
	if _, err := parseOptionalDate("13/01/2025"); !errors.Is(err, core.ErrInvalidDay) {
		t.Errorf("error = %v, want ErrInvalidDay", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Coffee  ", "Coffee"},
		{"Bell\x07 pepper", "Bell pepper"},
		{"line one\nline two", "line one\nline two"},
		{"\x00\x1b[31m", "[31m"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
