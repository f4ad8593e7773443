package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-advisor/internal/catalog"
)

var names = map[string]string{
	"Signals and Systems":                           "CI_3.02",
	"Physics: Mechanics, Electricity and Magnetism": "CI_1.07",
	"Machine Learning":                              "CI_5.01",
	"Machine Learning Lab":                          "CI_5.02",
	"Databases":                                     "CI_3.04",
	"Distributed Databases":                         "CI_W.02",
}

func TestResolve(t *testing.T) {
	r := New(names, 0)

	tests := []struct {
		name     string
		query    string
		wantCode string
		minScore int
		wantErr  error
	}{
		{name: "exact name", query: "signals and systems", wantCode: "CI_3.02", minScore: 100},
		{name: "inside a question", query: "when is my signals class?", wantCode: "CI_3.02", minScore: 100},
		{name: "punctuation ignored", query: "physics: mechanics", wantCode: "CI_1.07", minScore: 100},
		{name: "shortest name wins a tie", query: "tell me about machine learning", wantCode: "CI_5.01", minScore: 100},
		{name: "shorter of two substrings", query: "databases", wantCode: "CI_3.04", minScore: 100},
		{name: "all tokens out of order", query: "systems signals", wantCode: "CI_3.02", minScore: 55},
		{name: "prefix token", query: "signal systems", wantCode: "CI_3.02", minScore: 55},
		{name: "semester number ignored", query: "when is my signals class in semester 3", wantCode: "CI_3.02", minScore: 100},
		{name: "ordinal semester ignored", query: "when is my signals class in the 3rd semester", wantCode: "CI_3.02", minScore: 100},
		{name: "ordinal word ignored", query: "machine learning in the fifth semester", wantCode: "CI_5.01", minScore: 100},
		{name: "code mention", query: "what is CI_W.02 about", wantCode: "CI_W.02", minScore: 100},
		{name: "lowercase code mention", query: "ci_1.07 room", wantCode: "CI_1.07", minScore: 100},
		{name: "nonsense", query: "xyz nonsense", wantErr: ErrNoConfidentMatch},
		{name: "only stopwords", query: "when is my class?", wantErr: ErrNoConfidentMatch},
		{name: "single partial token below threshold", query: "quantum magnetism theory", wantCode: "CI_1.07", minScore: 10, wantErr: ErrNoConfidentMatch},
		{name: "unknown code falls back to names", query: "CI_9.99 databases", wantCode: "CI_3.04", minScore: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.GreaterOrEqual(t, got.Score, tt.minScore)
		})
	}
}

func TestResolve_Threshold(t *testing.T) {
	query := "quantum magnetism electricity"

	_, err := New(names, DefaultMinScore).Resolve(query)
	require.NoError(t, err, "two partial tokens score 20")

	_, err = New(names, 21).Resolve(query)
	assert.ErrorIs(t, err, ErrNoConfidentMatch)
}

func TestScore(t *testing.T) {
	tests := []struct {
		query, name string
		want        int
	}{
		{"signals and systems", "Signals and Systems", 100},
		{"Systems", "Signals and Systems", 100},
		{"systems signals", "Signals and Systems", 55},
		{"systems signals and", "Signals and Systems", 60},
		{"signals noise", "Signals and Systems", 10},
		{"signals noise systems", "Signals and Systems", 20},
		{"sys", "Signals and Systems", 0},
		{"xyz", "Signals and Systems", 0},
		{"the", "Signals and Systems", 0},
		{"signals", "", 0},
		{"signals systems 3", "Signals and Systems", 55},
		{"introduction to programming", "Introduction to Programming", 100},
	}
	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.query, tt.name))
		})
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"When is my Signals class?", []string{"signals"}},
		{"what is the schedule", nil},
		{"signals in semester 3", []string{"signals"}},
		{"signals in the 3rd semester", []string{"signals"}},
		{"signals on friday, second semester", []string{"signals"}},
		{"an ai lab", []string{"lab"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokens(tt.query))
		})
	}
}

func TestFromIndex(t *testing.T) {
	idx := catalog.NewIndex([]catalog.ModuleRecord{{Code: "CI_3.02", Name: "Signals and Systems"}}, nil)
	got, err := FromIndex(idx, 0).Resolve("signals")
	require.NoError(t, err)
	assert.Equal(t, Match{Code: "CI_3.02", Name: "Signals and Systems", Score: 100}, got)
}
