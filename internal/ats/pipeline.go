package ats

import "fmt"

// UpdatePipelineInterview updates a candidate's pipeline entry. Either status
// or notes may be empty; empty fields are left untouched remotely.
func (c *Client) UpdatePipelineInterview(sendoutID, status, notes string) error {
	if err := c.EnsureAuthenticated(); err != nil {
		return err
	}

	data := map[string]string{}
	if status != "" {
		data["InterviewStatus"] = status
	}
	if notes != "" {
		data["Notes"] = notes
	}

	return c.doJSON("PUT", "/PipelineInterviews/"+sendoutID, nil, data, nil, true)
}

// AddCandidateNote appends a note to a candidate record.
func (c *Client) AddCandidateNote(candidateID, note, noteType string) error {
	if err := c.EnsureAuthenticated(); err != nil {
		return err
	}

	if noteType == "" {
		noteType = "General"
	}
	data := map[string]string{
		"NoteType": noteType,
		"NoteText": note,
	}

	return c.doJSON("POST", fmt.Sprintf("/candidates/%s/notes", candidateID), nil, data, nil, true)
}

// SetAssessmentScore writes the assessment score and recommendation onto the
// candidate's custom fields.
func (c *Client) SetAssessmentScore(candidateID string, score float64, recommendation string) error {
	if err := c.EnsureAuthenticated(); err != nil {
		return err
	}

	data := map[string]any{
		"AssessmentScore":               score,
		"AssessmentScoreRecommendation": recommendation,
	}

	return c.doJSON("PUT", "/candidates/"+candidateID, nil, data, nil, true)
}
