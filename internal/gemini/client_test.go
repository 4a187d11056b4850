package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.NoError(t, Config{APIKey: "k"}.Validate())
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr bool
	}{
		{name: "nil", resp: nil, wantErr: true},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: true},
		{
			name:    "no content",
			resp:    &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}},
			wantErr: true,
		},
		{
			name: "joins parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: `{"intent":`}, {Text: `"other","details":{}}`}}},
			}}},
			want: `{"intent":"other","details":{}}`,
		},
		{
			name: "skips thoughts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "thinking", Thought: true}, {Text: "{}"}}},
			}}},
			want: "{}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := responseText(tt.resp)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Generate(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": `{"intent":"delete","details":{}}`}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())

	out, err := c.Generate(context.Background(), "cancel my meeting")
	require.NoError(t, err)
	assert.Equal(t, `{"intent":"delete","details":{}}`, out)
	assert.True(t, strings.HasSuffix(gotPath, DefaultModel+":generateContent"), gotPath)
	assert.Contains(t, gotBody, "cancel my meeting")
}
