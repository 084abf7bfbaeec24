package dtos

import (
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

// MinDescriptionLength is the shortest job description accepted by the form.
const MinDescriptionLength = 100

const deadlineLayout = "2006-01-02"

type JobExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}

// JobFormData is the job form submitted from step 1 of the generator and
// from the dashboard editor.
type JobFormData struct {
	Title       string `json:"title" binding:"required"`
	Company     string `json:"company" binding:"required"`
	Description string `json:"description" binding:"required"`

	// Optional Fields
	ContactPerson string `json:"contact_person"`
	URL           string `json:"url" binding:"omitempty,url"`
	Deadline      string `json:"deadline"` // YYYY-MM-DD
}

// Validate applies the trimmed-value rules that struct tags cannot express.
func (f *JobFormData) Validate() error {
	switch {
	case strings.TrimSpace(f.Title) == "":
		return fmt.Errorf("%w: job title is required", common.ErrValidation)
	case strings.TrimSpace(f.Company) == "":
		return fmt.Errorf("%w: company name is required", common.ErrValidation)
	case strings.TrimSpace(f.Description) == "":
		return fmt.Errorf("%w: job description is required", common.ErrValidation)
	case len([]rune(strings.TrimSpace(f.Description))) < MinDescriptionLength:
		return fmt.Errorf("%w: job description must be at least %d characters", common.ErrValidation, MinDescriptionLength)
	}
	if f.Deadline != "" {
		if _, err := time.Parse(deadlineLayout, f.Deadline); err != nil {
			return fmt.Errorf("%w: deadline must be formatted as YYYY-MM-DD", common.ErrValidation)
		}
	}
	return nil
}

// ToJob maps the form onto a JobPosting. Call Validate first.
func (f *JobFormData) ToJob() *models.JobPosting {
	job := &models.JobPosting{
		Title:         strings.TrimSpace(f.Title),
		Company:       strings.TrimSpace(f.Company),
		Description:   strings.TrimSpace(f.Description),
		ContactPerson: strings.TrimSpace(f.ContactPerson),
		URL:           strings.TrimSpace(f.URL),
	}
	if d, err := time.Parse(deadlineLayout, f.Deadline); err == nil {
		job.Deadline = &d
	}
	return job
}

// JobFormFromPosting prefills a form from a stored job.
func JobFormFromPosting(job *models.JobPosting) JobFormData {
	f := JobFormData{
		Title:         job.Title,
		Company:       job.Company,
		Description:   job.Description,
		ContactPerson: job.ContactPerson,
		URL:           job.URL,
	}
	if job.Deadline != nil {
		f.Deadline = job.Deadline.Format(deadlineLayout)
	}
	return f
}
