package ats

import (
	"fmt"
	"net/url"

	"github.com/mitchellh/mapstructure"
)

type Position struct {
	JobID     string `json:"JobId" mapstructure:"JobId"`
	Title     string `json:"JobTitle" mapstructure:"JobTitle"`
	Status    string `json:"Status" mapstructure:"Status"`
	CompanyID string `json:"CompanyId" mapstructure:"CompanyId"`
	City      string `json:"City" mapstructure:"City"`
	State     string `json:"State" mapstructure:"State"`
}

type PositionFilters struct {
	Status    string
	CompanyID string
}

// GetPositions lists positions, optionally filtered by status or company.
func (c *Client) GetPositions(filters PositionFilters) ([]*Position, error) {
	if err := c.EnsureAuthenticated(); err != nil {
		return nil, err
	}

	q := url.Values{}
	if filters.Status != "" {
		q.Set("Status", filters.Status)
	}
	if filters.CompanyID != "" {
		q.Set("CompanyId", filters.CompanyID)
	}

	results, err := c.getResults("/positions", q)
	if err != nil {
		return nil, err
	}

	var positions []*Position
	if err := decodeLoose(results, &positions); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}

	return positions, nil
}

// GetPosition fetches a single position by ID.
func (c *Client) GetPosition(id string) (*Position, error) {
	if err := c.EnsureAuthenticated(); err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := c.doJSON("GET", "/positions/"+id, nil, nil, &raw, true); err != nil {
		return nil, err
	}

	var position Position
	if err := decodeLoose(raw, &position); err != nil {
		return nil, fmt.Errorf("decode position %s: %w", id, err)
	}

	return &position, nil
}

// decodeLoose maps the API's loosely typed JSON maps onto structs, tolerating
// numeric and string representations of the same field.
func decodeLoose(input, output any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           output,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
