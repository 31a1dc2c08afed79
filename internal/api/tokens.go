package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ListTokens fetches the current token listing. The upstream has served
// three envelope shapes over time ({"tokens":[...]}, {"data":[...]}, and a
// bare array); all three are accepted.
func (c *Client) ListTokens(ctx context.Context) ([]TokenRecord, error) {
	body, err := c.doWithRetry(ctx, http.MethodGet, "", nil)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	records, err := parseTokenList(body)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	return records, nil
}

// TokenPrice fetches the current USD price for a single token.
func (c *Client) TokenPrice(ctx context.Context, id string) (float64, error) {
	var resp PriceResponse
	if err := c.get(ctx, "/"+id+"/price", nil, &resp); err != nil {
		return 0, fmt.Errorf("token price %s: %w", id, err)
	}
	return resp.PriceUSD, nil
}

func parseTokenList(body []byte) ([]TokenRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty response body")
	}

	if trimmed[0] == '[' {
		var records []TokenRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("parse token array: %w", err)
		}
		return records, nil
	}

	var envelope struct {
		Tokens []TokenRecord `json:"tokens"`
		Data   []TokenRecord `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("parse token envelope: %w", err)
	}

	if envelope.Tokens != nil {
		return envelope.Tokens, nil
	}
	if envelope.Data != nil {
		return envelope.Data, nil
	}

	return nil, errors.New("unrecognized token list shape")
}
