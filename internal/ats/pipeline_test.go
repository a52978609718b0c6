package ats

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdatePipelineInterview(t *testing.T) {
	var gotMethod string
	var gotBody map[string]string
	c, _ := newTestClient(t, authHandler("tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/PipelineInterviews/77", r.URL.Path)
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
	})))

	require.NoError(t, c.UpdatePipelineInterview("77", "Interview Scheduled", ""))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, map[string]string{"InterviewStatus": "Interview Scheduled"}, gotBody)
}

func TestAddCandidateNote(t *testing.T) {
	var gotBody map[string]string
	c, _ := newTestClient(t, authHandler("tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/candidates/9001/notes", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		json.NewDecoder(r.Body).Decode(&gotBody)
	})))

	require.NoError(t, c.AddCandidateNote("9001", "scored 82/100", ""))
	assert.Equal(t, "General", gotBody["NoteType"])
	assert.Equal(t, "scored 82/100", gotBody["NoteText"])
}

func TestSetAssessmentScore(t *testing.T) {
	var gotBody map[string]any
	c, _ := newTestClient(t, authHandler("tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/candidates/9001", r.URL.Path)
		require.Equal(t, http.MethodPut, r.Method)
		json.NewDecoder(r.Body).Decode(&gotBody)
	})))

	require.NoError(t, c.SetAssessmentScore("9001", 82.5, "RECOMMEND"))
	assert.Equal(t, 82.5, gotBody["AssessmentScore"])
	assert.Equal(t, "RECOMMEND", gotBody["AssessmentScoreRecommendation"])
}
