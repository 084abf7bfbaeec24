package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobService is the Postgres-backed Repository.
type JobService struct {
	DB *gorm.DB
}

func NewJobService(db *gorm.DB) *JobService {
	return &JobService{
		DB: db,
	}
}

func (s *JobService) GetJob(ctx context.Context, userID, id string) (*models.JobPosting, error) {
	if err := checkID("get job", id); err != nil {
		return nil, err
	}
	var job models.JobPosting
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&job).Error
	if err != nil {
		return nil, dbError("get job", err)
	}
	return &job, nil
}

func (s *JobService) SaveJob(ctx context.Context, job *models.JobPosting) (*models.JobPosting, error) {
	if job.ID == "" {
		// new posting: the id is ours, not the database's
		out := *job
		out.ID = uuid.NewString()
		if err := s.DB.WithContext(ctx).Create(&out).Error; err != nil {
			return nil, dbError("create job", err)
		}
		return &out, nil
	}
	if err := checkID("update job", job.ID); err != nil {
		return nil, err
	}

	res := s.DB.WithContext(ctx).
		Model(&models.JobPosting{}).
		Where("id = ? AND user_id = ?", job.ID, job.UserID).
		Updates(map[string]any{
			"title":          job.Title,
			"company":        job.Company,
			"description":    job.Description,
			"contact_person": job.ContactPerson,
			"url":            job.URL,
			"deadline":       job.Deadline,
		})
	if res.Error != nil {
		return nil, dbError("update job", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("update job %s: %w", job.ID, common.ErrNotFound)
	}
	return s.GetJob(ctx, job.UserID, job.ID)
}

// ListJobs returns the user's postings, newest first.
func (s *JobService) ListJobs(ctx context.Context, userID string) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, dbError("list jobs", err)
	}
	return jobs, nil
}

func (s *JobService) DeleteJob(ctx context.Context, userID, id string) error {
	if err := checkID("delete job", id); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ? AND user_id = ?", id, userID).
			Delete(&models.GeneratedLetter{}).Error; err != nil {
			return dbError("delete letters", err)
		}
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.JobPosting{})
		if res.Error != nil {
			return dbError("delete job", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete job %s: %w", id, common.ErrNotFound)
		}
		return nil
	})
}

func (s *JobService) GetLetter(ctx context.Context, userID, id string) (*models.GeneratedLetter, error) {
	if err := checkID("get letter", id); err != nil {
		return nil, err
	}
	var letter models.GeneratedLetter
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&letter).Error
	if err != nil {
		return nil, dbError("get letter", err)
	}
	return &letter, nil
}

// SaveLetter refuses letters whose job is not owned by the same user.
func (s *JobService) SaveLetter(ctx context.Context, letter *models.GeneratedLetter) (*models.GeneratedLetter, error) {
	if _, err := s.GetJob(ctx, letter.UserID, letter.JobID); err != nil {
		return nil, err
	}

	if letter.ID == "" {
		out := *letter
		out.ID = uuid.NewString()
		if err := s.DB.WithContext(ctx).Create(&out).Error; err != nil {
			return nil, dbError("create letter", err)
		}
		return &out, nil
	}
	if err := checkID("update letter", letter.ID); err != nil {
		return nil, err
	}

	res := s.DB.WithContext(ctx).
		Model(&models.GeneratedLetter{}).
		Where("id = ? AND user_id = ?", letter.ID, letter.UserID).
		Updates(map[string]any{"content": letter.Content, "job_id": letter.JobID})
	if res.Error != nil {
		return nil, dbError("update letter", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("update letter %s: %w", letter.ID, common.ErrNotFound)
	}
	return s.GetLetter(ctx, letter.UserID, letter.ID)
}

func (s *JobService) ListLetters(ctx context.Context, userID, jobID string) ([]models.GeneratedLetter, error) {
	if checkID("list letters", jobID) != nil {
		return []models.GeneratedLetter{}, nil
	}
	var letters []models.GeneratedLetter
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Order("created_at DESC").
		Find(&letters).Error
	if err != nil {
		return nil, dbError("list letters", err)
	}
	return letters, nil
}

func (s *JobService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, dbError("get profile", err)
	}
	return &p, nil
}

// SaveProfile upserts on user_id.
func (s *JobService) SaveProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	out := *profile
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, UpdateAll: true}).
		Create(&out).Error
	if err != nil {
		return nil, dbError("save profile", err)
	}
	return &out, nil
}

func dbError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	}
	return fmt.Errorf("%s: db error: %w", op, err)
}
