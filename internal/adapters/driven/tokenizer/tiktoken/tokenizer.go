// Package tiktoken adapts the tiktoken BPE tokenizer to the Tokenizer
// port. All OpenAI-compatible embedding models in use share the
// cl100k_base encoding, so one instance serves every knowledge base.
package tiktoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
)

// DefaultEncoding is the BPE encoding used when none is specified.
const DefaultEncoding = "cl100k_base"

// Tokenizer wraps a tiktoken encoding. Safe for concurrent use.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

var _ driven.Tokenizer = (*Tokenizer)(nil)

// New loads the named BPE encoding. The first call downloads the
// vocabulary unless a tiktoken cache directory is configured.
func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: loading encoding %q: %v", domain.ErrTokenization, encoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (t *Tokenizer) Count(text string) (int, error) {
	return len(t.enc.Encode(text, nil, nil)), nil
}

// Encode converts text to token IDs.
func (t *Tokenizer) Encode(text string) ([]int, error) {
	return t.enc.Encode(text, nil, nil), nil
}

// Decode converts token IDs back to text.
func (t *Tokenizer) Decode(tokens []int) (string, error) {
	return t.enc.Decode(tokens), nil
}
