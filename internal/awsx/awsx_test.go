package awsx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/joseph-ayodele/textract-sheets/internal/common"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want common.ErrorKind
	}{
		{
			name: "throttling is transient",
			err:  &smithy.GenericAPIError{Code: "ThrottlingException", Fault: smithy.FaultClient},
			want: common.KindExternalServiceTransient,
		},
		{
			name: "server fault is transient",
			err:  &smithy.GenericAPIError{Code: "InternalServerError", Fault: smithy.FaultServer},
			want: common.KindExternalServiceTransient,
		},
		{
			name: "client fault takes fallback",
			err:  &smithy.GenericAPIError{Code: "InvalidJobIdException", Fault: smithy.FaultClient},
			want: common.KindExternalServiceRejected,
		},
		{
			name: "wrapped api error",
			err:  fmt.Errorf("call: %w", &smithy.GenericAPIError{Code: "SlowDown"}),
			want: common.KindExternalServiceTransient,
		},
		{
			name: "deadline is transient",
			err:  context.DeadlineExceeded,
			want: common.KindExternalServiceTransient,
		},
		{
			name: "existing kind is kept",
			err:  common.NewAppError(common.KindStorageFailure, "put", nil),
			want: common.KindStorageFailure,
		},
		{
			name: "invalid params take fallback",
			err:  &smithy.OperationError{ServiceID: "Textract", OperationName: "GetDocumentTextDetection", Err: smithy.InvalidParamsError{Context: "GetDocumentTextDetectionInput"}},
			want: common.KindExternalServiceRejected,
		},
		{
			name: "credential failure takes fallback",
			err:  &smithy.OperationError{ServiceID: "Textract", Err: errors.New("failed to retrieve credentials")},
			want: common.KindExternalServiceRejected,
		},
		{
			name: "deserialization failure takes fallback",
			err:  &smithy.OperationError{ServiceID: "Textract", Err: &smithy.DeserializationError{Err: errors.New("bad json")}},
			want: common.KindExternalServiceRejected,
		},
		{
			name: "connection failure is transient",
			err: &smithy.OperationError{ServiceID: "Textract", Err: &smithyhttp.RequestSendError{
				Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			}},
			want: common.KindExternalServiceTransient,
		},
		{
			name: "bare network error is transient",
			err:  fmt.Errorf("get: %w", &net.DNSError{Err: "no such host", Name: "textract.local", IsTimeout: true}),
			want: common.KindExternalServiceTransient,
		},
		{
			name: "5xx response is transient",
			err: &smithy.OperationError{ServiceID: "Textract", Err: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusBadGateway}},
				Err:      errors.New("bad gateway"),
			}},
			want: common.KindExternalServiceTransient,
		},
		{
			name: "4xx response takes fallback",
			err: &smithy.OperationError{ServiceID: "Textract", Err: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusForbidden}},
				Err:      errors.New("forbidden"),
			}},
			want: common.KindExternalServiceRejected,
		},
		{
			name: "plain error takes fallback",
			err:  errors.New("boom"),
			want: common.KindExternalServiceRejected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err, common.KindExternalServiceRejected); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, common.KindStorageFailure, "x") != nil {
		t.Fatal("expected nil for nil error")
	}

	cause := &smithy.GenericAPIError{Code: "AccessDenied", Fault: smithy.FaultClient}
	err := Wrap(cause, common.KindStorageFailure, "put object")
	if common.KindOf(err) != common.KindStorageFailure {
		t.Errorf("expected storage failure, got %v", common.KindOf(err))
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		t.Error("expected api error to stay reachable")
	}
}
