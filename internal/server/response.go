// Package server adapts the pipelines to Lambda invocations: it sets up
// request-scoped logging and renders every outcome as a proxy response.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/joseph-ayodele/textract-sheets/internal/common"
)

// HeaderErrorKind carries the error class on failure responses.
const HeaderErrorKind = "X-Error-Kind"

// begin attaches the invocation's request id and a logger carrying it.
func begin(ctx context.Context, logger *slog.Logger, function string) (context.Context, *slog.Logger) {
	reqID := ""
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		reqID = lc.AwsRequestID
	}
	ctx = common.WithRequestID(ctx, reqID)
	log := logger.With("function", function, "request_id", common.RequestIDFromContext(ctx))
	return common.WithLogger(ctx, log), log
}

func respond(status int, body any) events.APIGatewayProxyResponse {
	b, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		b, _ = json.Marshal("Error: " + err.Error())
	}
	return events.APIGatewayProxyResponse{
		StatusCode:      status,
		Headers:         map[string]string{"Content-Type": "application/json"},
		Body:            string(b),
		IsBase64Encoded: false,
	}
}

func ok(body any) events.APIGatewayProxyResponse {
	return respond(http.StatusOK, body)
}

// failure renders err as a 500 whose body is prefix followed by the message.
func failure(prefix string, err error) events.APIGatewayProxyResponse {
	resp := respond(http.StatusInternalServerError, prefix+err.Error())
	resp.Headers[HeaderErrorKind] = common.KindOf(err).String()
	return resp
}
