package ats

import (
	"html"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

const activityTypeInquiry = "INQUIRY"

// Candidate is the flat candidate view derived from the remote
// activity/pipeline-interview object graph. JSON field names follow the wire
// format so manifests stay readable next to raw API responses.
type Candidate struct {
	CandidateID    string `json:"CandidateId" mapstructure:"CandidateId"`
	SendoutID      string `json:"SendoutId,omitempty" mapstructure:"SendoutId"`
	FirstName      string `json:"FirstName" mapstructure:"FirstName"`
	LastName       string `json:"LastName" mapstructure:"LastName"`
	CandidateName  string `json:"CandidateName,omitempty" mapstructure:"CandidateName"`
	DateAdded      string `json:"DateAdded,omitempty" mapstructure:"DateAdded"`
	PipelineStatus string `json:"PipelineStatus,omitempty" mapstructure:"PipelineStatus"`
	JobID          string `json:"JobId,omitempty" mapstructure:"JobId"`
}

// Name returns the candidate's display name.
func (c *Candidate) Name() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

type pipelineInterview struct {
	CandidateID     string `mapstructure:"CandidateId"`
	CandidateName   string `mapstructure:"CandidateName"`
	AppointmentDate string `mapstructure:"AppointmentDate"`
	InterviewStatus string `mapstructure:"InterviewStatus"`
	SendoutID       string `mapstructure:"SendoutId"`
	JobID           string `mapstructure:"JobId"`
}

// GetPositionCandidates returns the candidates in a position's pipeline.
//
// The API has no direct candidates-of-a-position endpoint. The relation is
// derived: the position's INQUIRY activities each point at a
// PipelineInterview record holding the true CandidateId and SendoutId.
// Candidates are deduplicated by CandidateId; activities whose interview
// record cannot be fetched are skipped.
func (c *Client) GetPositionCandidates(positionID string) ([]*Candidate, error) {
	if err := c.EnsureAuthenticated(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("ResultsPerPage", "500")
	activities, err := c.getResults("/positions/"+positionID+"/activities", q)
	if err != nil {
		return nil, err
	}

	var inquiryIDs []string
	for _, act := range activities {
		if asString(act["ActivityType"]) != activityTypeInquiry {
			continue
		}
		if id := asString(act["ActivityId"]); id != "" {
			inquiryIDs = append(inquiryIDs, id)
		}
	}

	candidates := make([]*Candidate, 0, len(inquiryIDs))
	seen := make(map[string]struct{}, len(inquiryIDs))
	for _, actID := range inquiryIDs {
		var raw map[string]any
		if err := c.doJSON("GET", "/PipelineInterviews/"+actID, nil, nil, &raw, true); err != nil {
			c.logger.Debug("skipping activity without pipeline interview",
				zap.String("activity_id", actID),
				zap.Error(err),
			)
			continue
		}

		var pi pipelineInterview
		if err := decodeLoose(raw, &pi); err != nil || pi.CandidateID == "" {
			continue
		}
		if _, dup := seen[pi.CandidateID]; dup {
			continue
		}
		seen[pi.CandidateID] = struct{}{}

		first, last, full := splitName(demangleName(pi.CandidateName))
		candidates = append(candidates, &Candidate{
			CandidateID:    pi.CandidateID,
			SendoutID:      pi.SendoutID,
			FirstName:      first,
			LastName:       last,
			CandidateName:  full,
			DateAdded:      pi.AppointmentDate,
			PipelineStatus: pi.InterviewStatus,
			JobID:          pi.JobID,
		})
	}

	return candidates, nil
}

// GetCandidate fetches a single candidate record.
func (c *Client) GetCandidate(id string) (map[string]any, error) {
	if err := c.EnsureAuthenticated(); err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := c.doJSON("GET", "/candidates/"+id, nil, nil, &raw, true); err != nil {
		return nil, err
	}
	return raw, nil
}

// SearchCandidates searches candidate records by free text, email or name.
func (c *Client) SearchCandidates(query, email, name string) ([]map[string]any, error) {
	if err := c.EnsureAuthenticated(); err != nil {
		return nil, err
	}

	q := url.Values{}
	if query != "" {
		q.Set("Query", query)
	}
	if email != "" {
		q.Set("Email", email)
	}
	if name != "" {
		q.Set("Name", name)
	}

	return c.getResults("/candidates", q)
}

// demangleName repairs names that arrive HTML-entity-escaped and with
// double-encoded UTF-8: unescape entities, then re-interpret the latin-1
// byte form as UTF-8, keeping the original when that fails.
func demangleName(s string) string {
	s = html.UnescapeString(s)

	encoded, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(encoded) {
		return s
	}
	return encoded
}

// splitName splits a display name into first and remainder-as-last.
func splitName(full string) (first, last, cleaned string) {
	cleaned = strings.TrimSpace(full)
	parts := strings.SplitN(cleaned, " ", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "", "", cleaned
	}
	first = parts[0]
	if len(parts) > 1 {
		last = strings.TrimSpace(parts[1])
	}
	return first, last, cleaned
}

func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case nil:
		return ""
	default:
		return ""
	}
}
