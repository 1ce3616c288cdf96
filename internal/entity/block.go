package entity

import (
	"github.com/joseph-ayodele/textract-sheets/constants"
)

// Block is one detected element. Only LINE blocks reach the result file.
type Block struct {
	BlockType string `json:"BlockType"`
	Page      int    `json:"Page"`
	Text      string `json:"Text"`
}

// IsLine reports whether the block is a line of text.
func (b Block) IsLine() bool {
	return b.BlockType == constants.BlockTypeLine
}

// DetectionPage is one paginated GetDocumentTextDetection response.
type DetectionPage struct {
	JobStatus     constants.JobStatus `json:"JobStatus"`
	StatusMessage string              `json:"StatusMessage,omitempty"`
	Blocks        []Block             `json:"Blocks"`
	NextToken     string              `json:"NextToken,omitempty"`
}

// HasMore reports whether another page follows this one.
func (p DetectionPage) HasMore() bool {
	return p.NextToken != ""
}
