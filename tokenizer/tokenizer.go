// Package tokenizer counts tokens for usage reporting when the provider did
// not return counts. Count is exact for OpenAI-family models via tiktoken;
// Estimate is a character heuristic that needs no encoding data.
//
// Both Count and CountOrEstimate satisfy the client's TokenEstimator
// signature:
//
//	keywordsai.NewClient(keywordsai.WithTokenEstimator(tokenizer.CountOrEstimate))
package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// modelEncodings maps model names to their tiktoken encoding. Lookups fall
// back to the longest matching prefix, so dated variants like
// "gpt-4o-2024-08-06" resolve without their own entry.
var modelEncodings = map[string]string{
	"gpt-4o":                 "o200k_base",
	"gpt-4o-mini":            "o200k_base",
	"gpt-4.1":                "o200k_base",
	"o1":                     "o200k_base",
	"o3":                     "o200k_base",
	"gpt-4-turbo":            "cl100k_base",
	"gpt-4":                  "cl100k_base",
	"gpt-3.5-turbo":          "cl100k_base",
	"text-embedding-3-large": "cl100k_base",
	"text-embedding-3-small": "cl100k_base",
}

const defaultEncoding = "cl100k_base"

var (
	mu        sync.Mutex
	encodings = map[string]*tiktoken.Tiktoken{}
)

// Count returns the exact token count of text under model's encoding. It
// reports false when the encoding data is unavailable, which happens offline
// before tiktoken has cached it.
func Count(model, text string) (int, bool) {
	enc, err := encodingByName(encodingFor(model))
	if err != nil {
		return 0, false
	}
	return len(enc.Encode(text, nil, nil)), true
}

// CountOrEstimate is Count with Estimate as the fallback. It always reports
// true, so spans keep token counts even when encoding data cannot load.
func CountOrEstimate(model, text string) (int, bool) {
	if n, ok := Count(model, text); ok {
		return n, true
	}
	return Estimate(text), true
}

// Estimate approximates the token count of text from its characters: roughly
// four per token for Latin script and one and a half for CJK. Non-empty text
// counts as at least one token.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	var cjk, other int
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FA5 {
			cjk++
		} else {
			other++
		}
	}
	n := int(float64(cjk)/1.5 + float64(other)/4.0)
	if n < 1 {
		n = 1
	}
	return n
}

func encodingFor(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if enc, ok := modelEncodings[model]; ok {
		return enc
	}
	best := ""
	enc := defaultEncoding
	for prefix, e := range modelEncodings {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
			enc = e
		}
	}
	return enc
}

// encodingByName loads and caches one tiktoken encoding. Failed loads are
// not cached, so a later call can succeed once the data is reachable.
func encodingByName(name string) (*tiktoken.Tiktoken, error) {
	mu.Lock()
	defer mu.Unlock()
	if enc, ok := encodings[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	encodings[name] = enc
	return enc, nil
}
