package ocr

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/textract-sheets/internal/common"
	"github.com/joseph-ayodele/textract-sheets/internal/entity"
)

// maxPages stops a service that keeps handing back tokens.
const maxPages = 10000

// CollectPages follows continuation tokens from first until the service
// stops returning one. first is kept as the initial page.
func CollectPages(ctx context.Context, c Client, jobID string, first entity.DetectionPage) ([]entity.DetectionPage, error) {
	pages := []entity.DetectionPage{first}
	seen := map[string]struct{}{}
	for last := first; last.HasMore(); last = pages[len(pages)-1] {
		token := last.NextToken
		if _, dup := seen[token]; dup {
			return nil, common.Errorf(common.KindExternalServiceRejected, nil, "job %s returned continuation token twice", jobID)
		}
		seen[token] = struct{}{}
		if len(pages) >= maxPages {
			return nil, common.Errorf(common.KindExternalServiceRejected, nil, "job %s exceeded %d result pages", jobID, maxPages)
		}

		page, err := c.GetTextDetection(ctx, jobID, token)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", len(pages)+1, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// Flatten groups LINE blocks by page, preserving page first-sight order
// and line order across all responses.
func Flatten(pages []entity.DetectionPage) *entity.PageText {
	m := entity.NewPageText()
	for _, p := range pages {
		for _, b := range p.Blocks {
			if !b.IsLine() {
				continue
			}
			m.Append(b.Page, b.Text)
		}
	}
	return m
}
