package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindUnknown},
		{"plain", base, KindUnknown},
		{"direct", NewAppError(KindStorageFailure, "put", base), KindStorageFailure},
		{"wrapped", fmt.Errorf("outer: %w", NewAppError(KindInputMalformed, "bad", nil)), KindInputMalformed},
		{"wrap helper", WrapError(Errorf(KindExternalServiceTransient, nil, "slow %d", 1), "record 0"), KindExternalServiceTransient},
		{"outermost wins", NewAppError(KindStorageFailure, "upload", NewAppError(KindExternalServiceTransient, "throttled", nil)), KindStorageFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError(t *testing.T) {
	err := Errorf(KindExternalServiceRejected, ErrJobFailed, "job %s failed", "j1")
	if err.Error() != "external_service_rejected: job j1 failed: job did not succeed" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrJobFailed) {
		t.Error("cause should be reachable")
	}
	if NewAppError(KindInputMalformed, "bad", nil).Error() != "input_malformed: bad" {
		t.Error("message without cause")
	}
	if WrapError(nil, "x") != nil {
		t.Error("WrapError(nil) should be nil")
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("bucket", "", Required).
		Field("key", "", Required).
		Field("name", "abcdef", MaxLength(3))

	if !v.HasErrors() || len(v.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %v", v.Errors())
	}
	err := ValidateAndReturnError(v)
	if KindOf(err) != KindInputMalformed || !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unexpected error %v", err)
	}
	if ValidateAndReturnError(NewValidator().Field("bucket", "Legacy_Bucket", Required)) != nil {
		t.Error("present bucket rejected")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if RequestIDFromContext(ctx) == "" {
		t.Error("empty request id should be replaced")
	}
	ctx = WithJobID(WithRequestID(ctx, "req-1"), "job-1")
	if RequestIDFromContext(ctx) != "req-1" || JobIDFromContext(ctx) != "job-1" {
		t.Error("context values lost")
	}
	if LoggerFromContext(context.Background(), nil) == nil {
		t.Error("expected default logger")
	}
}
