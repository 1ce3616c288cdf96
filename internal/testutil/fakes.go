// Package testutil holds in-memory stand-ins for the external services.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/textract-sheets/constants"
	"github.com/joseph-ayodele/textract-sheets/internal/common"
	"github.com/joseph-ayodele/textract-sheets/internal/entity"
	"github.com/joseph-ayodele/textract-sheets/internal/ocr"
)

// FakeOCR serves scripted responses. Statuses are returned one per poll
// (first-page call) and the last one repeats; Pages are the SUCCEEDED
// result pages linked by their NextToken values.
type FakeOCR struct {
	mu sync.Mutex

	JobID      string
	HTTPStatus int
	StartErr   error

	Statuses []constants.JobStatus
	Pages    []entity.DetectionPage
	GetErr   error

	Started   []ocr.StartInput
	Polls     int
	TokenGets []string
}

func (f *FakeOCR) StartTextDetection(_ context.Context, in ocr.StartInput) (entity.JobCreated, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Started = append(f.Started, in)
	if f.StartErr != nil {
		return entity.JobCreated{}, f.StartErr
	}
	status := f.HTTPStatus
	if status == 0 {
		status = 200
	}
	return entity.JobCreated{
		JobID:            f.JobID,
		DocumentLocation: entity.DocumentLocation{Bucket: in.Bucket, Name: in.Key},
		ResponseMetadata: entity.ResponseMetadata{RequestID: "req-1", HTTPStatusCode: status},
	}, nil
}

func (f *FakeOCR) GetTextDetection(_ context.Context, jobID, nextToken string) (entity.DetectionPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return entity.DetectionPage{}, f.GetErr
	}
	if f.JobID != "" && jobID != f.JobID {
		return entity.DetectionPage{}, common.Errorf(common.KindExternalServiceRejected, nil, "unknown job %s", jobID)
	}

	if nextToken != "" {
		f.TokenGets = append(f.TokenGets, nextToken)
		for i, p := range f.Pages {
			if p.NextToken == nextToken && i+1 < len(f.Pages) {
				next := f.Pages[i+1]
				next.JobStatus = constants.JobStatusSucceeded
				return next, nil
			}
		}
		return entity.DetectionPage{}, common.Errorf(common.KindExternalServiceRejected, nil, "bad token %s", nextToken)
	}

	f.Polls++
	status := constants.JobStatusSucceeded
	if len(f.Statuses) > 0 {
		idx := f.Polls - 1
		if idx >= len(f.Statuses) {
			idx = len(f.Statuses) - 1
		}
		status = f.Statuses[idx]
	}
	if status != constants.JobStatusSucceeded || len(f.Pages) == 0 {
		return entity.DetectionPage{JobStatus: status}, nil
	}
	first := f.Pages[0]
	first.JobStatus = status
	return first, nil
}

// TwoPageFourLines is the fixture used across the pipeline tests: two
// pages, two lines each, split over two responses with WORD noise.
func TwoPageFourLines() []entity.DetectionPage {
	return []entity.DetectionPage{
		{
			Blocks: []entity.Block{
				{BlockType: "PAGE", Page: 1},
				{BlockType: "LINE", Page: 1, Text: "Hello world"},
				{BlockType: "WORD", Page: 1, Text: "Hello"},
				{BlockType: "LINE", Page: 1, Text: "Second line"},
			},
			NextToken: "tok-1",
		},
		{
			Blocks: []entity.Block{
				{BlockType: "PAGE", Page: 2},
				{BlockType: "LINE", Page: 2, Text: "Page two"},
				{BlockType: "LINE", Page: 2, Text: "The end"},
			},
		},
	}
}

// MemoryStore is a storage.Store backed by a map.
type MemoryStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string
	Puts    int

	PutErr     error
	ListErr    error
	PresignErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: map[string][]byte{}, Types: map[string]string{}}
}

func (s *MemoryStore) Put(_ context.Context, key string, body []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.Puts++
	s.Objects[key] = append([]byte(nil), body...)
	s.Types[key] = contentType
	return nil
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var keys []string
	for k := range s.Objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	if s.PresignErr != nil {
		return "", s.PresignErr
	}
	return fmt.Sprintf("https://example.test/%s?X-Amz-Expires=%d", key, int(ttl.Seconds())), nil
}

// Get returns a stored object.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.Objects[key]
	return b, ok
}

// RecordingPublisher captures published messages.
type RecordingPublisher struct {
	mu       sync.Mutex
	Subjects []string
	Messages [][]byte
	Err      error
}

func (p *RecordingPublisher) Publish(_ context.Context, subject string, message []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	p.Subjects = append(p.Subjects, subject)
	p.Messages = append(p.Messages, append([]byte(nil), message...))
	return fmt.Sprintf("msg-%d", len(p.Messages)), nil
}

// ImmediateTimer fires at once and records every requested delay.
type ImmediateTimer struct {
	mu     sync.Mutex
	Delays []time.Duration
}

func (t *ImmediateTimer) After(d time.Duration) <-chan time.Time {
	t.mu.Lock()
	t.Delays = append(t.Delays, d)
	t.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}
