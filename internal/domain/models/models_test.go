package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysCeil(t *testing.T) {
	base := date(2025, 1, 1)
	tests := []struct {
		name string
		to   time.Time
		want int
	}{
		{"same instant", base, 0},
		{"one hour", base.Add(time.Hour), 1},
		{"exactly one day", base.Add(Day), 1},
		{"a day and a minute", base.Add(Day + time.Minute), 2},
		{"past", base.Add(-36 * time.Hour), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysCeil(base, tt.to); got != tt.want {
				t.Errorf("DaysCeil = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPolicyDates_Ordered(t *testing.T) {
	tests := []struct {
		name  string
		dates PolicyDates
		want  bool
	}{
		{"renewal equals end", PolicyDates{date(2025, 1, 1), date(2026, 1, 1), date(2026, 1, 1)}, true},
		{"renewal after end", PolicyDates{date(2025, 1, 1), date(2026, 1, 1), date(2026, 2, 1)}, true},
		{"start equals end", PolicyDates{date(2025, 1, 1), date(2025, 1, 1), date(2026, 1, 1)}, false},
		{"renewal before end", PolicyDates{date(2025, 1, 1), date(2026, 1, 1), date(2025, 12, 1)}, false},
		{"end before start", PolicyDates{date(2026, 1, 1), date(2025, 1, 1), date(2026, 1, 1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dates.Ordered(); got != tt.want {
				t.Errorf("Ordered() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFinancial_Total(t *testing.T) {
	f := Financial{Premium: 3500, Franchise: 3000, Taxes: 0}
	if got := f.Total(); got != 6500 {
		t.Errorf("Total() = %v, want 6500", got)
	}
	f = Financial{Premium: 0.1, Franchise: 0.2, Taxes: 0}
	if got := f.Total(); got != 0.3 {
		t.Errorf("Total() = %v, want 0.3", got)
	}
}

func TestCoverage_Set(t *testing.T) {
	var c Coverage
	c.Enforce()
	if !c.Set("vol", true) || !c.Vol {
		t.Error("expected vol to be enabled")
	}
	if !c.Set(CoverageRC, false) || !c.RCObligatoire {
		t.Error("rcObligatoire must stay enabled")
	}
	if c.Set("nope", true) {
		t.Error("unknown coverage name must be rejected")
	}
	for _, name := range CoverageNames {
		if c.flag(name) == nil {
			t.Errorf("coverage name %q has no field", name)
		}
	}
}

func TestPolicyStatus_Guards(t *testing.T) {
	for _, s := range PolicyStatuses {
		wantRenew := s == PolicyActive || s == PolicyExpired
		if s.Renewable() != wantRenew {
			t.Errorf("%s.Renewable() = %v", s, s.Renewable())
		}
		wantCancel := s != PolicyCancelled && s != PolicyExpired
		if s.Cancellable() != wantCancel {
			t.Errorf("%s.Cancellable() = %v", s, s.Cancellable())
		}
	}
	if PolicyStatus("Bogus").Valid() {
		t.Error("unknown status reported valid")
	}
}

func TestClaim_AddTimelineEntry(t *testing.T) {
	created := date(2025, 3, 1)
	c := Claim{CreatedAt: created}
	c.AddTimelineEntry(created, ClaimDraft, "Claim created", ActorUser, nil, false)
	c.AddTimelineEntry(created.Add(time.Hour), ClaimSubmitted, "sent", ActorUser, nil, false)

	if len(c.Timeline) != 2 {
		t.Fatalf("timeline length = %d, want 2", len(c.Timeline))
	}
	if c.Status != ClaimSubmitted {
		t.Errorf("status = %s, want Submitted", c.Status)
	}

	// A clock going backwards must not break chronological order.
	e := c.AddTimelineEntry(created, ClaimUnderReview, "review", ActorAgent, nil, true)
	if e.Date.Before(c.Timeline[1].Date) {
		t.Errorf("entry date %v went before previous %v", e.Date, c.Timeline[1].Date)
	}
	if c.Status != c.Timeline[len(c.Timeline)-1].Status {
		t.Error("status must equal last timeline status")
	}
}

func TestClaim_DerivedAges(t *testing.T) {
	created := date(2025, 3, 1)
	now := created.Add(10*Day + time.Hour)

	c := Claim{CreatedAt: created}
	if got := c.AgeInDays(now); got != 11 {
		t.Errorf("AgeInDays = %d, want 11", got)
	}
	if got := c.DaysSinceLastUpdate(now); got != 11 {
		t.Errorf("DaysSinceLastUpdate without timeline = %d, want 11", got)
	}

	c.AddTimelineEntry(created.Add(9*Day), ClaimSubmitted, "", ActorUser, nil, false)
	if got := c.DaysSinceLastUpdate(now); got != 2 {
		t.Errorf("DaysSinceLastUpdate = %d, want 2", got)
	}
}

func TestClaimNotes_Add(t *testing.T) {
	var n ClaimNotes
	if !n.Add(NoteAgent, "called client") {
		t.Fatal("agent bucket rejected")
	}
	if len(n.Agent) != 1 || n.User != nil {
		t.Errorf("unexpected buckets: %+v", n)
	}
	if n.Add("other", "x") {
		t.Error("unknown bucket accepted")
	}
}

func TestPolicy_DerivedDays(t *testing.T) {
	p := Policy{Dates: PolicyDates{date(2025, 1, 1), date(2026, 1, 1), date(2026, 1, 1)}}
	if got := p.Duration(); got != 365 {
		t.Errorf("Duration = %d, want 365", got)
	}
	if got := p.DaysUntilRenewal(date(2025, 12, 31).Add(time.Hour)); got != 1 {
		t.Errorf("DaysUntilRenewal = %d, want 1", got)
	}
}

func TestUser_IsLocked(t *testing.T) {
	now := date(2025, 1, 1)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)
	if (User{}).IsLocked(now) {
		t.Error("user without lock reported locked")
	}
	if !(User{LockUntil: &future}).IsLocked(now) {
		t.Error("future lock not honored")
	}
	if (User{LockUntil: &past}).IsLocked(now) {
		t.Error("expired lock still honored")
	}
}
