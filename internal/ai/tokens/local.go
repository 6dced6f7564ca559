// Package tokens estimates prompt sizes offline.
package tokens

import (
	"context"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Gemini has no public offline tokenizer; cl100k is within a few percent
// for English prose and code.
const (
	encodingModel       = "gpt-4o-mini"
	fallbackEncoding    = "cl100k_base"
	approxCharsPerToken = 4
)

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

func sharedEncoder() *tiktoken.Tiktoken {
	encoderOnce.Do(func() {
		enc, err := tiktoken.EncodingForModel(encodingModel)
		if err != nil {
			enc, _ = tiktoken.GetEncoding(fallbackEncoding)
		}
		encoder = enc
	})
	return encoder
}

// EncodeFunc turns text into token ids. A nil result means no encoder is available.
type EncodeFunc func(text string) []int

// LocalCounter implements ai.TokenCounter without calling any API.
type LocalCounter struct {
	encode EncodeFunc
}

func NewLocalCounter() *LocalCounter {
	return &LocalCounter{encode: func(text string) []int {
		enc := sharedEncoder()
		if enc == nil {
			return nil
		}
		return enc.Encode(text, nil, nil)
	}}
}

// NewLocalCounterWithEncoder is used when the BPE files cannot be fetched.
func NewLocalCounterWithEncoder(encode EncodeFunc) *LocalCounter {
	return &LocalCounter{encode: encode}
}

func (c *LocalCounter) CountTokens(_ context.Context, content string) (int, error) {
	if content == "" {
		return 0, nil
	}
	if c.encode != nil {
		if ids := c.encode(content); len(ids) > 0 {
			return len(ids), nil
		}
	}
	return max(1, len(content)/approxCharsPerToken), nil
}
