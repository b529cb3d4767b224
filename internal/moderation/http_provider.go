package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"usta_backend/pkg/apperrors"
)

// HTTPProvider ходит во внешний классификатор контента по HTTP.
// Любая сетевая или серверная ошибка оборачивается в ExternalServiceError:
// ее ретраит воркер, клиенту она не отдается.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Input string `json:"input"`
	Kind  string `json:"kind"`
}

type classifyResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}

func (p *HTTPProvider) ModerateText(ctx context.Context, text string) (*Result, error) {
	return p.classify(ctx, classifyRequest{Input: text, Kind: "text"})
}

func (p *HTTPProvider) ModerateImage(ctx context.Context, imageURL string) (*Result, error) {
	return p.classify(ctx, classifyRequest{Input: imageURL, Kind: "image"})
}

func (p *HTTPProvider) classify(ctx context.Context, payload classifyRequest) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/moderations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperrors.ErrExternalService(err, "moderation", "moderation provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, apperrors.ErrExternalService(
			fmt.Errorf("moderation provider returned %d: %s", resp.StatusCode, raw),
			"moderation", "moderation provider error",
		)
	}

	var parsed classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.ErrExternalService(err, "moderation", "malformed moderation response")
	}
	if len(parsed.Results) == 0 {
		return nil, apperrors.ErrExternalService(
			fmt.Errorf("empty results"), "moderation", "malformed moderation response",
		)
	}

	return &Result{
		Flagged:    parsed.Results[0].Flagged,
		Categories: parsed.Results[0].Categories,
	}, nil
}
