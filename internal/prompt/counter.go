package prompt

import (
	"github.com/pkoukk/tiktoken-go"
)

type Counter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateCounter approximates four characters per token.
type EstimateCounter struct{}

func (EstimateCounter) Count(text string) int {
	return (len(text) + 3) / 4
}

// NewCounter loads the named BPE encoding, falling back to the estimate when
// the encoding cannot be loaded (for example without network access).
func NewCounter(encoding string) Counter {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return EstimateCounter{}
	}
	return &tiktokenCounter{enc: enc}
}
