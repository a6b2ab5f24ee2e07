// internal/stages/classify-intent/handler_test.go
package classifyintent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"citypulse/internal/common/logger"
	"citypulse/internal/models"
)

func TestHandler_Execute_Categories(t *testing.T) {
	tests := []struct {
		name     string
		question string
		expected models.AnalysisCategory
	}{
		{
			name:     "emergency stress question",
			question: "Which neighborhoods are under the most emergency stress right now?",
			expected: models.CategoryEmergencyStress,
		},
		{
			name:     "homelessness question",
			question: "Where is shelter waitlist pressure the highest?",
			expected: models.CategoryHomelessnessPressure,
		},
		{
			name:     "disaster question",
			question: "Show me earthquake impact over the past week",
			expected: models.CategoryDisasterImpact,
		},
		{
			name:     "infrastructure question",
			question: "Which areas have the most pothole reports?",
			expected: models.CategoryInfrastructure,
		},
		{
			name:     "insurance question",
			question: "Generate an insurance risk report for the city",
			expected: models.CategoryInsuranceReport,
		},
		{
			name:     "generic data question",
			question: "How many incidents were recorded yesterday?",
			expected: models.CategoryMixedQuery,
		},
		{
			name:     "unrelated question",
			question: "hello there",
			expected: models.CategoryUnknown,
		},
	}

	handler := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), &Input{Question: tt.question})
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, output.Category)
		})
	}
}

func TestHandler_Execute_CaseInsensitive(t *testing.T) {
	handler := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	variants := []string{
		"INSURANCE risk overview",
		"Insurance risk overview",
		"underwriting EXPOSURE summary",
	}

	for _, question := range variants {
		output, err := handler.Execute(context.Background(), &Input{Question: question})
		assert.NoError(t, err)
		assert.Equal(t, models.CategoryInsuranceReport, output.Category, "question: %s", question)
	}
}

func TestHandler_Execute_Priority(t *testing.T) {
	handler := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	tests := []struct {
		name     string
		question string
		expected models.AnalysisCategory
	}{
		{
			// insurance terms beat disaster terms
			name:     "insurance beats disaster",
			question: "insurance exposure from the recent fire events",
			expected: models.CategoryInsuranceReport,
		},
		{
			// disaster terms beat emergency terms
			name:     "disaster beats emergency",
			question: "earthquake related 911 calls",
			expected: models.CategoryDisasterImpact,
		},
		{
			// homelessness beats emergency
			name:     "homeless beats emergency",
			question: "police presence near homeless encampments",
			expected: models.CategoryHomelessnessPressure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), &Input{Question: tt.question})
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, output.Category)
		})
	}
}

func TestHandler_Execute_EmptyQuestion(t *testing.T) {
	handler := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Question: ""})
	assert.NoError(t, err)
	assert.Equal(t, models.CategoryUnknown, output.Category)
}
