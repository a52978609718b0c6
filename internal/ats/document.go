package ats

import (
	"encoding/base64"
	"fmt"
)

// Document is a candidate attachment mapped onto the field names callers use.
type Document struct {
	DocumentID   string `json:"DocumentId"`
	FileName     string `json:"FileName"`
	DocumentType string `json:"DocumentType"`
	Size         int    `json:"Size"`
	Date         string `json:"Date"`
}

type attachment struct {
	AttachmentID string `mapstructure:"AttachmentId"`
	Name         string `mapstructure:"Name"`
	Description  string `mapstructure:"Description"`
	Size         int    `mapstructure:"Size"`
	Date         string `mapstructure:"Date"`
}

// GetCandidateDocuments lists a candidate's attachments as documents.
func (c *Client) GetCandidateDocuments(candidateID string) ([]*Document, error) {
	if err := c.EnsureAuthenticated(); err != nil {
		return nil, err
	}

	results, err := c.getResults("/candidates/"+candidateID+"/attachments", nil)
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(results))
	for _, raw := range results {
		var att attachment
		if err := decodeLoose(raw, &att); err != nil {
			continue
		}
		docs = append(docs, &Document{
			DocumentID:   att.AttachmentID,
			FileName:     att.Name,
			DocumentType: att.Description,
			Size:         att.Size,
			Date:         att.Date,
		})
	}

	return docs, nil
}

// DownloadDocument fetches an attachment's content. The endpoint returns JSON
// with a base64-encoded Data field rather than raw bytes.
func (c *Client) DownloadDocument(candidateID, documentID string) ([]byte, error) {
	if err := c.EnsureAuthenticated(); err != nil {
		return nil, err
	}

	var resp struct {
		Data string `json:"Data"`
	}
	path := fmt.Sprintf("/candidates/%s/attachments/%s", candidateID, documentID)
	if err := c.doJSON("GET", path, nil, nil, &resp, true); err != nil {
		return nil, err
	}

	if resp.Data == "" {
		return nil, &APIError{StatusCode: 200, Msg: fmt.Sprintf("no data in attachment %s", documentID)}
	}

	content, err := base64.StdEncoding.DecodeString(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("decode attachment %s: %w", documentID, err)
	}

	return content, nil
}
