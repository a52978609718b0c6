package ats

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPositionCandidates(t *testing.T) {
	interviews := map[string]map[string]any{
		"501": {"CandidateId": "9001", "SendoutId": "77", "CandidateName": "Jane Doe", "AppointmentDate": "2026-07-01", "InterviewStatus": "Presented"},
		"502": {"CandidateId": "9002", "CandidateName": "Bob Roe", "InterviewStatus": "Interview Scheduled"},
		// Same candidate referenced from a second activity.
		"503": {"CandidateId": "9001", "CandidateName": "Jane Doe"},
	}

	c, _ := newTestClient(t, authHandler("tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/positions/123/activities":
			json.NewEncoder(w).Encode(resultsResponse{Results: []map[string]any{
				{"ActivityId": "501", "ActivityType": "INQUIRY"},
				{"ActivityId": "600", "ActivityType": "CALL"},
				{"ActivityId": "502", "ActivityType": "INQUIRY"},
				{"ActivityId": "999", "ActivityType": "INQUIRY"},
				{"ActivityId": "503", "ActivityType": "INQUIRY"},
			}})
		default:
			id := r.URL.Path[len("/PipelineInterviews/"):]
			pi, ok := interviews[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(pi)
		}
	})))

	candidates, err := c.GetPositionCandidates("123")
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "9001", candidates[0].CandidateID)
	assert.Equal(t, "77", candidates[0].SendoutID)
	assert.Equal(t, "Jane", candidates[0].FirstName)
	assert.Equal(t, "Doe", candidates[0].LastName)
	assert.Equal(t, "Presented", candidates[0].PipelineStatus)
	assert.Equal(t, "9002", candidates[1].CandidateID)
}

func TestDemangleName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain ascii untouched", "Jane Doe", "Jane Doe"},
		{"html entities unescaped", "Jos&eacute; Garc&iacute;a", "José García"},
		{"double encoded utf8 repaired", "RenÃ©e", "Renée"},
		{"non latin1 kept as is", "山田 太郎", "山田 太郎"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, demangleName(tt.in))
		})
	}
}

func TestSplitName(t *testing.T) {
	first, last, full := splitName("Mary Anne van der Berg")
	assert.Equal(t, "Mary", first)
	assert.Equal(t, "Anne van der Berg", last)
	assert.Equal(t, "Mary Anne van der Berg", full)

	first, last, _ = splitName("Cher")
	assert.Equal(t, "Cher", first)
	assert.Empty(t, last)

	first, last, _ = splitName("")
	assert.Empty(t, first)
	assert.Empty(t, last)
}

func TestCandidateName(t *testing.T) {
	c := &Candidate{FirstName: "Jane", LastName: "Doe"}
	assert.Equal(t, "Jane Doe", c.Name())

	c = &Candidate{FirstName: "Cher"}
	assert.Equal(t, "Cher", c.Name())
}
