package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"pennywise/internal/core"
)

func TestParseTransactionFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    func(t *testing.T, start, end core.Date, category string, typ core.TxType, keyword string)
		wantErr error
	}{
		{
			name:  "date range",
			query: url.Values{"startDate": {"2024-07-01"}, "endDate": {"2024-07-31"}},
			want: func(t *testing.T, start, end core.Date, _ string, _ core.TxType, _ string) {
				if start.String() != "2024-07-01" || end.String() != "2024-07-31" {
					t.Errorf("range = %s..%s", start, end)
				}
			},
		},
		{
			name:  "type is case insensitive",
			query: url.Values{"type": {"EXPENSE"}},
			want: func(t *testing.T, _, _ core.Date, _ string, typ core.TxType, _ string) {
				if typ != core.Expense {
					t.Errorf("type = %v", typ)
				}
			},
		},
		{
			name:  "category and keyword are sanitized",
			query: url.Values{"category": {"  Food\x00 "}, "descriptionKeyword": {" rent "}},
			want: func(t *testing.T, _, _ core.Date, category string, _ core.TxType, keyword string) {
				if category != "Food" || keyword != "rent" {
					t.Errorf("category=%q keyword=%q", category, keyword)
				}
			},
		},
		{name: "bad start date", query: url.Values{"startDate": {"07/01/2024"}}, wantErr: core.ErrInvalidDate},
		{name: "bad type", query: url.Values{"type": {"transfer"}}, wantErr: core.ErrInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseTransactionFilter(tt.query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.want(t, f.Start, f.End, f.Category, f.Type, f.Keyword)
		})
	}
}

func TestQueryMonthAndInt(t *testing.T) {
	q := url.Values{"month": {"2024-02"}, "months": {"12"}, "bad": {"x"}}

	m, err := QueryMonth(q, "month")
	if err != nil || m.String() != "2024-02-01" {
		t.Errorf("QueryMonth() = %s, %v", m, err)
	}
	if m, err := QueryMonth(q, "missing"); err != nil || !m.IsZero() {
		t.Errorf("QueryMonth(missing) = %s, %v", m, err)
	}
	if _, err := QueryMonth(url.Values{"month": {"2024-13"}}, "month"); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("QueryMonth(2024-13) error = %v", err)
	}

	if n, err := QueryInt(q, "months", 6); err != nil || n != 12 {
		t.Errorf("QueryInt() = %d, %v", n, err)
	}
	if n, err := QueryInt(q, "missing", 6); err != nil || n != 6 {
		t.Errorf("QueryInt(default) = %d, %v", n, err)
	}
	if _, err := QueryInt(q, "bad", 6); !errors.Is(err, errBadRequest) {
		t.Errorf("QueryInt(bad) error = %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"name":"Food"}`, false},
		{"empty", ``, true},
		{"malformed", `{"name":`, true},
		{"two documents", `{"name":"a"}{"name":"b"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v categoryRequest
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := DecodeJSON(httptest.NewRecorder(), r, &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && errorStatus(err) != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", errorStatus(err))
			}
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"12", 12, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.raw)
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

			got, err := PathID(r)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("PathID(%q) = %d, %v", tt.raw, got, err)
			}
		})
	}
}
