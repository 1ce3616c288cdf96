package trigger

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/joseph-ayodele/textract-sheets/internal/common"
)

func s3Event(bucket, key string) events.S3Event {
	return events.S3Event{Records: []events.S3EventRecord{{
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: bucket},
			Object: events.S3Object{Key: key},
		},
	}}}
}

func TestParseUploads(t *testing.T) {
	t.Run("unescapes key", func(t *testing.T) {
		got, err := ParseUploads(s3Event("docs-bucket", "upload/my+scan%281%29.pdf"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].Key != "upload/my scan(1).pdf" || got[0].Bucket != "docs-bucket" {
			t.Errorf("unexpected uploads: %+v", got)
		}
	})

	t.Run("empty records is not an error", func(t *testing.T) {
		got, err := ParseUploads(events.S3Event{})
		if err != nil || len(got) != 0 {
			t.Errorf("expected no uploads and no error, got %v, %v", got, err)
		}
	})

	t.Run("missing bucket is malformed", func(t *testing.T) {
		_, err := ParseUploads(s3Event("", "upload/a.pdf"))
		if common.KindOf(err) != common.KindInputMalformed {
			t.Errorf("expected malformed input, got %v", err)
		}
	})

	t.Run("legacy bucket names are accepted", func(t *testing.T) {
		got, err := ParseUploads(s3Event("Legacy_Docs.Bucket", "upload/a.pdf"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].Bucket != "Legacy_Docs.Bucket" {
			t.Errorf("unexpected uploads %+v", got)
		}
	})

	t.Run("bad escape is malformed", func(t *testing.T) {
		_, err := ParseUploads(s3Event("docs-bucket", "upload/%zz.pdf"))
		if common.KindOf(err) != common.KindInputMalformed {
			t.Errorf("expected malformed input, got %v", err)
		}
	})
}

func TestParseJobMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantID  string
		wantErr bool
	}{
		{"full creation response", `{"JobId":"abc123","ResponseMetadata":{"HTTPStatusCode":200}}`, "abc123", false},
		{"missing job id", `{"ResponseMetadata":{}}`, "", true},
		{"job id not a string", `{"JobId":42}`, "", true},
		{"opaque job id", `{"JobId":"9f2c/ab+==.long-token_0123456789abcdef0123456789abcdef"}`, "9f2c/ab+==.long-token_0123456789abcdef0123456789abcdef", false},
		{"empty job id", `{"JobId":""}`, "", true},
		{"not json", `JobId=abc`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseJobMessage(tt.message)
			if tt.wantErr {
				if common.KindOf(err) != common.KindInputMalformed {
					t.Errorf("expected malformed input, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg.JobID != tt.wantID {
				t.Errorf("expected %s, got %s", tt.wantID, msg.JobID)
			}
		})
	}
}

func TestParseJobMessages(t *testing.T) {
	evt := events.SNSEvent{Records: []events.SNSEventRecord{
		{SNS: events.SNSEntity{Message: `{"JobId":"one"}`}},
		{SNS: events.SNSEntity{Message: `{"JobId":"two"}`}},
	}}
	msgs, err := ParseJobMessages(evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 || msgs[0].JobID != "one" || msgs[1].JobID != "two" {
		t.Errorf("unexpected messages: %+v", msgs)
	}

	evt.Records[1].SNS.Message = `{}`
	if _, err := ParseJobMessages(evt); common.KindOf(err) != common.KindInputMalformed {
		t.Errorf("expected malformed input, got %v", err)
	}
}
