package dtos

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() JobFormData {
	return JobFormData{
		Title:       "Backend Developer",
		Company:     "Acme",
		Description: strings.Repeat("Go services, Postgres, queues. ", 5),
	}
}

func TestJobFormData_Validate(t *testing.T) {
	ok := validForm()
	require.NoError(t, ok.Validate())

	tests := []struct {
		name   string
		mutate func(f *JobFormData)
	}{
		{"blank title", func(f *JobFormData) { f.Title = "   " }},
		{"blank company", func(f *JobFormData) { f.Company = "" }},
		{"blank description", func(f *JobFormData) { f.Description = "\n\t" }},
		{"short description", func(f *JobFormData) { f.Description = strings.Repeat("x", MinDescriptionLength-1) }},
		{"short after trim", func(f *JobFormData) { f.Description = "   " + strings.Repeat("x", MinDescriptionLength-1) + "   " }},
		{"bad deadline", func(f *JobFormData) { f.Deadline = "31/12/2025" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)
			err := f.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrValidation))
		})
	}
}

func TestJobFormData_Validate_CountsRunes(t *testing.T) {
	f := validForm()
	f.Description = strings.Repeat("ø", MinDescriptionLength)
	assert.NoError(t, f.Validate())
}

func TestJobFormData_ToJob(t *testing.T) {
	f := validForm()
	f.Title = "  Backend Developer "
	f.ContactPerson = " Jane "
	f.URL = "https://acme.example/jobs/1"
	f.Deadline = "2025-03-01"

	job := f.ToJob()
	assert.Equal(t, "Backend Developer", job.Title)
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, "Jane", job.ContactPerson)
	assert.Equal(t, "https://acme.example/jobs/1", job.URL)
	require.NotNil(t, job.Deadline)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *job.Deadline)
	assert.Empty(t, job.ID)
}

func TestJobFormFromPosting_RoundTripsDeadline(t *testing.T) {
	d := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	f := JobFormFromPosting(&models.JobPosting{Title: "T", Company: "C", Description: "D", Deadline: &d})
	assert.Equal(t, "2025-03-01", f.Deadline)
	assert.Equal(t, "T", f.Title)
}
