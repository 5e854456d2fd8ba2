package driven

// Tokenizer counts, encodes, and decodes text into model-specific
// tokens. Implementations are stateless and safe for concurrent use;
// one shared instance is constructed at startup and reused by every
// chunker.
//
// Decode(Encode(text)) reproduces text for ordinary input. Splitting a
// token stream at arbitrary offsets can land inside a multi-byte
// sequence, in which case decoding the halves separately is not
// guaranteed lossless; callers that slice token streams accept that.
type Tokenizer interface {
	// Count returns the number of tokens in text.
	Count(text string) (int, error)

	// Encode converts text to token IDs.
	Encode(text string) ([]int, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int) (string, error)
}
