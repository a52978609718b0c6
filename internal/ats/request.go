package ats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

const contentType = "application/json"

// doJSON performs one request against the API and decodes the JSON response
// into target (when non-nil). A 401 maps to AuthError, any other >=400 status
// to APIError, and network failures to TransportError.
func (c *Client) doJSON(method, path string, q url.Values, body, target any, withAuth bool) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(c.ctx, method, c.APIURL+path, reqBody)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Api-Key", c.creds.APIKey)
	if withAuth && c.session != nil {
		req.Header.Set("Authorization", "BEARER "+c.session.Token)
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request", zap.String("method", method), zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthError{Msg: "authentication failed or session expired"}
	}

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Msg: apiErrorMessage(data, resp.Status)}
	}

	if target == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func apiErrorMessage(body []byte, fallback string) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	if len(body) > 0 {
		return string(body)
	}
	return fallback
}

// resultsResponse is the envelope used by the API's list endpoints.
type resultsResponse struct {
	Results      []map[string]any `json:"Results"`
	TotalRecords int              `json:"TotalRecords"`
}

// getResults fetches every page of a list endpoint.
func (c *Client) getResults(path string, q url.Values) ([]map[string]any, error) {
	if q == nil {
		q = url.Values{}
	}
	if q.Get("ResultsPerPage") == "" {
		q.Set("ResultsPerPage", strconv.Itoa(perPage))
	}
	size, _ := strconv.Atoi(q.Get("ResultsPerPage"))

	var all []map[string]any
	for page := 1; ; page++ {
		q.Set("Page", strconv.Itoa(page))

		var resp resultsResponse
		if err := c.doJSON(http.MethodGet, path, q, nil, &resp, true); err != nil {
			return nil, err
		}

		all = append(all, resp.Results...)

		if len(resp.Results) < size || len(resp.Results) == 0 {
			break
		}
		c.logger.Debug("additional page needed",
			zap.String("path", path),
			zap.Int("fetched", len(all)),
			zap.Int("total_records", resp.TotalRecords),
		)
	}

	return all, nil
}
