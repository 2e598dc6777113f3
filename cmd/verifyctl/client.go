package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxResponseBytes = 4 << 20

// envelope mirrors the API's verification envelope. Data is kept raw so any
// identifier type can be printed.
type envelope struct {
	Success     bool            `json:"success"`
	Data        json.RawMessage `json:"data,omitempty"`
	Error       string          `json:"error,omitempty"`
	ErrorCode   string          `json:"error_code,omitempty"`
	ErrorSource string          `json:"error_source,omitempty"`
	Timestamp   string          `json:"timestamp"`
}

type batchItem struct {
	Type              string `json:"type"`
	Value             string `json:"value"`
	IncludeEnrichment bool   `json:"include_enrichment"`
}

type batchResult struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	envelope
}

type batchResponse struct {
	Success bool          `json:"success"`
	Results []batchResult `json:"results"`
	Total   int           `json:"total"`
}

type statsResponse struct {
	Name       string `json:"name"`
	Tier       string `json:"tier"`
	DailyLimit int    `json:"daily_limit"`
	UsedToday  int    `json:"used_today"`
	Remaining  int    `json:"remaining"`
}

// apiError is a non-2xx answer.
type apiError struct {
	Status      int
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *apiError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Description)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Code)
}

type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newClient(baseURL, apiKey string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
	}
}

// requestField is the body field each single endpoint expects.
var requestField = map[string]string{
	"siret": "siret",
	"siren": "siren",
	"tva":   "numero_tva",
	"iban":  "iban",
}

func (c *client) verify(ctx context.Context, kind, value string) (*envelope, error) {
	var env envelope
	body := map[string]string{requestField[kind]: value}
	if err := c.do(ctx, http.MethodPost, "/api/v1/verify/"+kind, body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *client) batch(ctx context.Context, items []batchItem) (*batchResponse, error) {
	var resp batchResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/verify/batch", items, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) stats(ctx context.Context) (*statsResponse, error) {
	var resp statsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		if apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
