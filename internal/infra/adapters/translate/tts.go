package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TTSClient calls the external text-to-speech service, which returns a
// URL to the synthesized audio file.
type TTSClient struct {
	baseURL string
	http    *http.Client
}

func NewTTSClient(baseURL string, timeout time.Duration) *TTSClient {
	return &TTSClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type ttsRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type ttsResponse struct {
	AudioURL string `json:"audio_url"`
}

func (c *TTSClient) Synthesize(ctx context.Context, text, lang string) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("tts not configured")
	}

	body, err := json.Marshal(ttsRequest{Text: text, Language: lang})
	if err != nil {
		return "", fmt.Errorf("marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call tts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tts returned %d", resp.StatusCode)
	}

	var out ttsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode tts response: %w", err)
	}

	return out.AudioURL, nil
}
