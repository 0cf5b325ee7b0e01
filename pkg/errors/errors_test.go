package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found", detailsOK: true},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeNoOutstandingDue, status: http.StatusUnprocessableEntity, publicMsg: "no outstanding due amount", detailsOK: true},
		{code: CodeAmountExceedsDue, status: http.StatusUnprocessableEntity, publicMsg: "amount exceeds outstanding due", detailsOK: true},
		{code: CodeInsufficientAdvance, status: http.StatusUnprocessableEntity, publicMsg: "insufficient advance balance", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error"},
		{code: CodeUnavailable, status: http.StatusServiceUnavailable, publicMsg: "service temporarily unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}

	formatted := Newf(CodeNotFound, "retailer %s not found", "r-1")
	if formatted.Message() != "retailer r-1 not found" {
		t.Fatalf("unexpected message %q", formatted.Message())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	outer := fmt.Errorf("handler: %w", err)
	if got := As(outer); got != err {
		t.Fatalf("expected typed error from chain")
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatalf("plain errors must not be typed")
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("untyped errors default to internal")
	}
	err := fmt.Errorf("wrap: %w", New(CodeInsufficientAdvance, "short"))
	if !IsCode(err, CodeInsufficientAdvance) {
		t.Fatalf("expected insufficient advance code")
	}
	if IsCode(nil, CodeInternal) {
		t.Fatalf("nil error carries no code")
	}
}

func TestIsBusinessRule(t *testing.T) {
	for _, code := range []Code{CodeValidation, CodeNotFound, CodeNoOutstandingDue, CodeAmountExceedsDue, CodeInsufficientAdvance} {
		if !IsBusinessRule(code) {
			t.Fatalf("expected %s to be a business rule code", code)
		}
	}
	for _, code := range []Code{CodeConflict, CodeUnavailable, CodeInternal} {
		if IsBusinessRule(code) {
			t.Fatalf("expected %s to be a system code", code)
		}
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeUnavailable, stdErrors.New("deadline"), "commit order")
	d := Dump(err)
	if d.Code != CodeUnavailable {
		t.Fatalf("unexpected code %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(d.Chain))
	}
}
