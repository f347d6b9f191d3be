package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
		typ  string
	}{
		{InvalidFilter("bad op %q", "~"), http.StatusBadRequest, "query.invalid_filter"},
		{InvalidID("abc"), http.StatusBadRequest, "validation"},
		{Validation(map[string][]string{"task_id": {"required"}}), http.StatusBadRequest, "validation"},
		{NotFound("tasks", 3), http.StatusNotFound, "query.item_not_found"},
		{Forbidden("tasks", 3), http.StatusForbidden, "authorization.forbidden"},
		{Duplicate("time-intervals"), http.StatusConflict, "query.item_already_exists"},
		{MalformedRow("intervals", errors.New("eof")), http.StatusInternalServerError, "report.malformed_row"},
		{errors.New("boom"), http.StatusInternalServerError, "unknown"},
	}

	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.want)
		}
		if got := Type(tt.err); got != tt.typ {
			t.Errorf("Type(%v) = %q, want %q", tt.err, got, tt.typ)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("edit: %w", Forbidden("tasks", 7))
	if !Is(err, KindForbidden) {
		t.Fatalf("expected forbidden kind through wrap, got %v", KindOf(err))
	}
	if Is(nil, KindForbidden) {
		t.Fatal("nil error should not match any kind")
	}
}

func TestMalformedRowUnwraps(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := MalformedRow("screens", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable with errors.Is")
	}
}
