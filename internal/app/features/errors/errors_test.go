package errors_test

import (
	"net/http"
	"strings"
	"testing"

	apierrors "github.com/dalemusser/assurance/internal/app/features/errors"
	"github.com/dalemusser/assurance/internal/testutil"
	"go.uber.org/zap"
)

func TestNotFound(t *testing.T) {
	h := apierrors.NewHandler(zap.NewNop())
	rec := testutil.NewRecorder()
	h.NotFound(rec, testutil.NewRequest("GET", "/api/nope"))

	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertCode(t, "ROUTE_NOT_FOUND")
	rec.AssertContains(t, "Route not found")
}

func TestMethodNotAllowed(t *testing.T) {
	h := apierrors.NewHandler(zap.NewNop())
	rec := testutil.NewRecorder()
	h.MethodNotAllowed(rec, testutil.NewRequest("PATCH", "/api/policies"))

	rec.AssertStatus(t, http.StatusMethodNotAllowed)
}

func TestRecover(t *testing.T) {
	h := apierrors.NewHandler(zap.NewNop())
	boom := h.Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := testutil.NewRecorder()
	boom.ServeHTTP(rec, testutil.NewRequest("GET", "/api/claims"))

	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertCode(t, "INTERNAL_ERROR")
	if body := rec.Body.String(); len(body) == 0 || strings.Contains(body, "boom") {
		t.Errorf("panic value leaked to client: %s", body)
	}
}

func TestRecover_PassesThrough(t *testing.T) {
	h := apierrors.NewHandler(zap.NewNop())
	ok := h.Recover(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := testutil.NewRecorder()
	ok.ServeHTTP(rec, testutil.NewRequest("GET", "/"))
	rec.AssertStatus(t, http.StatusNoContent)
}
