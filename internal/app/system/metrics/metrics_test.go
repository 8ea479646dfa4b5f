package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/assurance/internal/domain/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counts(t *testing.T) {
	r := New()
	r.PolicyTransition("renew", models.PolicyActive, models.PolicyExpired)
	r.PolicyTransition("renew", models.PolicyActive, models.PolicyExpired)
	r.ClaimTransition(models.ClaimSubmitted, models.ActorUser)
	r.LoginFailure("INVALID_CREDENTIALS")

	if got := testutil.ToFloat64(r.policyTransitions.WithLabelValues("renew", "Active", "Expired")); got != 2 {
		t.Errorf("policy transitions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.claimTransitions.WithLabelValues("Submitted", "user")); got != 1 {
		t.Errorf("claim transitions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.loginFailures.WithLabelValues("INVALID_CREDENTIALS")); got != 1 {
		t.Errorf("login failures = %v, want 1", got)
	}
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	r.PolicyTransition("cancel", models.PolicyDraft, models.PolicyCancelled)
	r.ClaimTransition(models.ClaimClosed, models.ActorAgent)
	r.LoginFailure("ACCOUNT_LOCKED")
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ClaimTransition(models.ClaimDraft, models.ActorUser)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "assurance_claim_timeline_entries_total") {
		t.Error("exposition is missing the claim counter")
	}
}
