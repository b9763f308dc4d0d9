package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
)

// The endpoint has shipped the generated text under several envelope shapes
// over time. decodeGeneratedText probes them in order of likelihood:
//
//  1. candidates[].content.parts[].text (current shape, parts joined)
//  2. top-level text
//  3. candidates[].content.text (legacy flat content)
//
// A response matching none of them, or matching with only blank text, is an
// empty model output.
func decodeGeneratedText(raw []byte) (string, string, error) {
	var envelope struct {
		Text       string `json:"text"`
		Candidates []struct {
			Content struct {
				Text  string `json:"text"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", "", fmt.Errorf("decode generate response: %w", err)
	}

	for _, cand := range envelope.Candidates {
		if len(cand.Content.Parts) == 0 {
			continue
		}
		parts := make([]string, 0, len(cand.Content.Parts))
		for _, p := range cand.Content.Parts {
			parts = append(parts, p.Text)
		}
		if text := joinNonEmpty(parts, "\n"); strings.TrimSpace(text) != "" {
			return text, "candidates.parts", nil
		}
	}

	if strings.TrimSpace(envelope.Text) != "" {
		return envelope.Text, "top-level", nil
	}

	for _, cand := range envelope.Candidates {
		if strings.TrimSpace(cand.Content.Text) != "" {
			return cand.Content.Text, "candidates.content", nil
		}
	}

	return "", "", domain.WrapError(domain.ErrEmptyModelOutput, "decode generate response",
		fmt.Errorf("no recognizable text in envelope"))
}

func decodeEmbedding(raw []byte) ([]float32, error) {
	var envelope struct {
		Embedding struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(envelope.Embedding.Values) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyModelOutput, "decode embed response",
			fmt.Errorf("empty embedding values"))
	}
	return envelope.Embedding.Values, nil
}
