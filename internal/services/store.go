package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

// Repository is the Job Record Store. Every read and write is scoped to the
// owning user; rows of other users behave as if they did not exist and are
// reported as common.ErrNotFound.
type Repository interface {
	GetJob(ctx context.Context, userID, id string) (*models.JobPosting, error)
	// SaveJob creates the job when ID is empty and updates it otherwise.
	SaveJob(ctx context.Context, job *models.JobPosting) (*models.JobPosting, error)
	ListJobs(ctx context.Context, userID string) ([]models.JobPosting, error)
	// DeleteJob removes the job together with its letters.
	DeleteJob(ctx context.Context, userID, id string) error

	GetLetter(ctx context.Context, userID, id string) (*models.GeneratedLetter, error)
	SaveLetter(ctx context.Context, letter *models.GeneratedLetter) (*models.GeneratedLetter, error)
	ListLetters(ctx context.Context, userID, jobID string) ([]models.GeneratedLetter, error)

	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
}

var (
	_ Repository = (*JobService)(nil)
	_ Repository = (*SupabaseStore)(nil)
	_ Repository = (*MemoryStore)(nil)
)

// checkID rejects ids that cannot name a row. Keys are uuid columns, so a
// malformed id is reported as not found instead of reaching the database.
func checkID(what, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %q: %w", what, id, common.ErrNotFound)
	}
	return nil
}
