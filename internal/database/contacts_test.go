// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package database

import (
	"strings"
	"testing"
	"time"

	"github.com/ykravets/contactd/internal/filter"
)

func TestContactFilterWhitelist(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"first_name:eq:John", false},
		{"phone:startswith:+380", false},
		{"birthday:between:1990-01-01,2000-12-31", false},
		{"updated_at:gt:2023-01-01", false},
		{"age:eq:5", true},
		{"email:gt:a@b.com", true},
		{"birthday:contains:1990", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := filter.Parse(ContactFilter, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestBuildListContactsQuery(t *testing.T) {
	req, err := filter.Parse(ContactFilter, "first_name:eq:John")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	query, args := buildListContactsQuery(7, req, 20, 10)
	want := "SELECT * FROM contacts WHERE user_id = $1 AND 1=1 AND first_name = $2 ORDER BY id OFFSET $3 LIMIT $4"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	wantArgs := []any{int64(7), "John", 20, 10}
	if len(args) != len(wantArgs) {
		t.Fatalf("got %d args, want %d", len(args), len(wantArgs))
	}
	for i, w := range wantArgs {
		if args[i] != w {
			t.Errorf("args[%d] = %v, want %v", i, args[i], w)
		}
	}
}

func TestBuildListContactsQueryNoFilter(t *testing.T) {
	query, args := buildListContactsQuery(1, filter.Request{}, 0, 100)
	want := "SELECT * FROM contacts WHERE user_id = $1 AND 1=1 ORDER BY id OFFSET $2 LIMIT $3"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if len(args) != 3 {
		t.Errorf("got %d args, want 3", len(args))
	}
}

func TestBuildListContactsQueryAllUsers(t *testing.T) {
	req, err := filter.Parse(ContactFilter, "first_name:eq:John")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	query, args := buildListContactsQuery(AllUsers, req, 0, 100)
	want := "SELECT * FROM contacts WHERE 1=1 AND first_name = $1 ORDER BY id OFFSET $2 LIMIT $3"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	wantArgs := []any{"John", 0, 100}
	if len(args) != len(wantArgs) {
		t.Fatalf("got %d args, want %d", len(args), len(wantArgs))
	}
	for i, w := range wantArgs {
		if args[i] != w {
			t.Errorf("args[%d] = %v, want %v", i, args[i], w)
		}
	}
}

func TestBirthdayWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		days      int
		wantStart string
		wantEnd   string
		wantWraps bool
	}{
		{
			name:      "mid-month window",
			now:       time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
			days:      7,
			wantStart: "06-10",
			wantEnd:   "06-17",
			wantWraps: false,
		},
		{
			name:      "month boundary forward",
			now:       time.Date(2026, 6, 28, 0, 0, 0, 0, time.UTC),
			days:      7,
			wantStart: "06-28",
			wantEnd:   "07-05",
			wantWraps: false,
		},
		{
			name:      "year boundary wraps",
			now:       time.Date(2026, 12, 29, 0, 0, 0, 0, time.UTC),
			days:      7,
			wantStart: "12-29",
			wantEnd:   "01-05",
			wantWraps: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, wraps := birthdayWindow(tt.now, tt.days)
			if start != tt.wantStart || end != tt.wantEnd || wraps != tt.wantWraps {
				t.Errorf("birthdayWindow() = (%q, %q, %v), want (%q, %q, %v)",
					start, end, wraps, tt.wantStart, tt.wantEnd, tt.wantWraps)
			}
		})
	}
}

func TestBuildUpcomingBirthdaysQueryCombinator(t *testing.T) {
	query, _ := buildUpcomingBirthdaysQuery(time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC), 7)
	if !strings.Contains(query, ">= $2 AND") {
		t.Errorf("mid-year window should AND the bounds: %q", query)
	}

	query, window := buildUpcomingBirthdaysQuery(time.Date(2026, 12, 29, 0, 0, 0, 0, time.UTC), 7)
	if !strings.Contains(query, ">= $2 OR") {
		t.Errorf("year-end window should OR the bounds: %q", query)
	}
	if window[0] != "12-29" || window[1] != "01-05" {
		t.Errorf("window = %v, want [12-29 01-05]", window)
	}
}
