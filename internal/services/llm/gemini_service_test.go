package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func textCandidate(texts ...string) *genai.Candidate {
	parts := make([]*genai.Part, len(texts))
	for i, text := range texts {
		parts[i] = &genai.Part{Text: text}
	}
	return &genai.Candidate{Content: &genai.Content{Parts: parts}}
}

func TestExtractCandidateText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{
			name: "nil response",
			resp: nil,
			want: "",
		},
		{
			name: "no candidates",
			resp: &genai.GenerateContentResponse{},
			want: "",
		},
		{
			name: "single candidate",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{textCandidate(`{"ticker":"ACME"}`)},
			},
			want: `{"ticker":"ACME"}`,
		},
		{
			name: "multi-part candidate concatenated",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{textCandidate(`{"ticker":`, `"ACME"}`)},
			},
			want: `{"ticker":"ACME"}`,
		},
		{
			name: "blocked candidate with nil content is skipped",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{
					{Content: nil},
					textCandidate(`{"ticker":"ACME"}`),
				},
			},
			want: `{"ticker":"ACME"}`,
		},
		{
			name: "all candidates blocked",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{Content: nil}, nil},
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCandidateText(tt.resp))
		})
	}
}
