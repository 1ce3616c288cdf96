package trigger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/textract-sheets/internal/common"
)

// Upload is one object named by a storage-upload notification.
type Upload struct {
	Bucket string
	Key    string
}

// ParseUploads extracts every record's bucket and unescaped key. An event
// with no records yields an empty slice and no error.
func ParseUploads(evt events.S3Event) ([]Upload, error) {
	out := make([]Upload, 0, len(evt.Records))
	for i, r := range evt.Records {
		key, err := url.QueryUnescape(r.S3.Object.Key)
		if err != nil {
			return nil, common.Errorf(common.KindInputMalformed, err, "record %d: object key %q is not url-escaped", i, r.S3.Object.Key)
		}
		v := common.NewValidator()
		v.Field(fmt.Sprintf("Records[%d].s3.bucket.name", i), r.S3.Bucket.Name, common.Required)
		v.Field(fmt.Sprintf("Records[%d].s3.object.key", i), key, common.Required, common.MaxLength(1024))
		if err := common.ValidateAndReturnError(v); err != nil {
			return nil, err
		}
		out = append(out, Upload{Bucket: r.S3.Bucket.Name, Key: key})
	}
	return out, nil
}

// JobMessage is the notification body the aggregator consumes.
type JobMessage struct {
	JobID string `json:"JobId"`
}

func jobMessageSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"JobId"},
		"properties": map[string]any{
			"JobId": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
		},
	}
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledJobSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(jobMessageSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("job_message.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("job_message.json")
	})
	return schema, schemaErr
}

// ParseJobMessage validates a notification body and returns its job id.
func ParseJobMessage(message string) (JobMessage, error) {
	s, err := compiledJobSchema()
	if err != nil {
		return JobMessage{}, fmt.Errorf("compile job schema: %w", err)
	}

	var v any
	if err := json.Unmarshal([]byte(message), &v); err != nil {
		return JobMessage{}, common.NewAppError(common.KindInputMalformed, "notification message is not JSON", err)
	}
	if err := s.Validate(v); err != nil {
		return JobMessage{}, common.NewAppError(common.KindInputMalformed, "notification message does not carry a valid JobId", err)
	}

	var msg JobMessage
	if err := json.Unmarshal([]byte(message), &msg); err != nil {
		return JobMessage{}, common.NewAppError(common.KindInputMalformed, "decode notification message", err)
	}
	return msg, nil
}

// ParseJobMessages returns one job message per SNS record, in order.
func ParseJobMessages(evt events.SNSEvent) ([]JobMessage, error) {
	out := make([]JobMessage, 0, len(evt.Records))
	for i, r := range evt.Records {
		msg, err := ParseJobMessage(r.SNS.Message)
		if err != nil {
			return nil, common.WrapError(err, fmt.Sprintf("record %d", i))
		}
		out = append(out, msg)
	}
	return out, nil
}
