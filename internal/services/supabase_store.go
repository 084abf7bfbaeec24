package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	supabase "github.com/nedpals/supabase-go"

	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

const (
	jobsTable     = "job_postings"
	lettersTable  = "cover_letters"
	profilesTable = "profiles"
	dateLayout    = "2006-01-02"
)

// SupabaseStore is the Repository backed by the Supabase REST API. It talks
// to the same tables the goose migrations create.
type SupabaseStore struct {
	client *supabase.Client
	now    func() time.Time
}

func NewSupabaseStore(supabaseURL, supabaseKey string) (*SupabaseStore, error) {
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided (SUPABASE_URL / SUPABASE_KEY)")
	}
	return &SupabaseStore{
		client: supabase.CreateClient(supabaseURL, supabaseKey),
		now:    time.Now,
	}, nil
}

// Rows are decoded separately from the models: PostgREST returns date
// columns as bare dates and exposes deleted_at.
type jobRow struct {
	ID            string     `json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title"`
	Company       string     `json:"company"`
	Description   string     `json:"description"`
	ContactPerson string     `json:"contact_person"`
	URL           string     `json:"url"`
	Deadline      *string    `json:"deadline"`
}

func (r jobRow) toModel() models.JobPosting {
	job := models.JobPosting{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		UserID:        r.UserID,
		Title:         r.Title,
		Company:       r.Company,
		Description:   r.Description,
		ContactPerson: r.ContactPerson,
		URL:           r.URL,
	}
	if r.Deadline != nil {
		if d, err := time.Parse(dateLayout, *r.Deadline); err == nil {
			job.Deadline = &d
		}
	}
	return job
}

func jobToRow(j *models.JobPosting) jobRow {
	r := jobRow{
		ID:            j.ID,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
		UserID:        j.UserID,
		Title:         j.Title,
		Company:       j.Company,
		Description:   j.Description,
		ContactPerson: j.ContactPerson,
		URL:           j.URL,
	}
	if j.Deadline != nil {
		d := j.Deadline.Format(dateLayout)
		r.Deadline = &d
	}
	return r
}

type letterRow struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	UserID    string     `json:"user_id"`
	JobID     string     `json:"job_id"`
	Content   string     `json:"content"`
}

func (r letterRow) toModel() models.GeneratedLetter {
	return models.GeneratedLetter{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		UserID:    r.UserID,
		JobID:     r.JobID,
		Content:   r.Content,
	}
}

func (s *SupabaseStore) GetJob(ctx context.Context, userID, id string) (*models.JobPosting, error) {
	if err := checkID("get job", id); err != nil {
		return nil, err
	}
	var rows []jobRow
	err := s.client.DB.From(jobsTable).Select("*").
		Eq("id", id).Eq("user_id", userID).
		ExecuteWithContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("get job: supabase: %w", err)
	}
	for _, r := range rows {
		if r.DeletedAt == nil {
			job := r.toModel()
			return &job, nil
		}
	}
	return nil, fmt.Errorf("get job %s: %w", id, common.ErrNotFound)
}

func (s *SupabaseStore) SaveJob(ctx context.Context, job *models.JobPosting) (*models.JobPosting, error) {
	now := s.now().UTC()
	if job.ID == "" {
		row := jobToRow(job)
		row.ID = uuid.NewString()
		row.CreatedAt = now
		row.UpdatedAt = now

		var inserted []jobRow
		if err := s.client.DB.From(jobsTable).Insert(row).ExecuteWithContext(ctx, &inserted); err != nil {
			return nil, fmt.Errorf("create job: supabase: %w", err)
		}
		out := row.toModel()
		return &out, nil
	}

	if _, err := s.GetJob(ctx, job.UserID, job.ID); err != nil {
		return nil, err
	}
	row := jobToRow(job)
	patch := map[string]any{
		"title":          row.Title,
		"company":        row.Company,
		"description":    row.Description,
		"contact_person": row.ContactPerson,
		"url":            row.URL,
		"deadline":       row.Deadline,
		"updated_at":     now,
	}
	var updated []jobRow
	err := s.client.DB.From(jobsTable).Update(patch).
		Eq("id", job.ID).Eq("user_id", job.UserID).
		ExecuteWithContext(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("update job: supabase: %w", err)
	}
	return s.GetJob(ctx, job.UserID, job.ID)
}

func (s *SupabaseStore) ListJobs(ctx context.Context, userID string) ([]models.JobPosting, error) {
	var rows []jobRow
	if err := s.client.DB.From(jobsTable).Select("*").Eq("user_id", userID).ExecuteWithContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list jobs: supabase: %w", err)
	}
	jobs := make([]models.JobPosting, 0, len(rows))
	for _, r := range rows {
		if r.DeletedAt == nil {
			jobs = append(jobs, r.toModel())
		}
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.After(jobs[k].CreatedAt) })
	return jobs, nil
}

func (s *SupabaseStore) DeleteJob(ctx context.Context, userID, id string) error {
	if _, err := s.GetJob(ctx, userID, id); err != nil {
		return err
	}
	patch := map[string]any{"deleted_at": s.now().UTC()}

	var letters []letterRow
	if err := s.client.DB.From(lettersTable).Update(patch).
		Eq("job_id", id).Eq("user_id", userID).
		ExecuteWithContext(ctx, &letters); err != nil {
		return fmt.Errorf("delete letters: supabase: %w", err)
	}
	var jobs []jobRow
	if err := s.client.DB.From(jobsTable).Update(patch).
		Eq("id", id).Eq("user_id", userID).
		ExecuteWithContext(ctx, &jobs); err != nil {
		return fmt.Errorf("delete job: supabase: %w", err)
	}
	return nil
}

func (s *SupabaseStore) GetLetter(ctx context.Context, userID, id string) (*models.GeneratedLetter, error) {
	if err := checkID("get letter", id); err != nil {
		return nil, err
	}
	var rows []letterRow
	err := s.client.DB.From(lettersTable).Select("*").
		Eq("id", id).Eq("user_id", userID).
		ExecuteWithContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("get letter: supabase: %w", err)
	}
	for _, r := range rows {
		if r.DeletedAt == nil {
			l := r.toModel()
			return &l, nil
		}
	}
	return nil, fmt.Errorf("get letter %s: %w", id, common.ErrNotFound)
}

func (s *SupabaseStore) SaveLetter(ctx context.Context, letter *models.GeneratedLetter) (*models.GeneratedLetter, error) {
	if _, err := s.GetJob(ctx, letter.UserID, letter.JobID); err != nil {
		return nil, err
	}
	now := s.now().UTC()

	if letter.ID == "" {
		row := letterRow{
			ID:        uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
			UserID:    letter.UserID,
			JobID:     letter.JobID,
			Content:   letter.Content,
		}
		var inserted []letterRow
		if err := s.client.DB.From(lettersTable).Insert(row).ExecuteWithContext(ctx, &inserted); err != nil {
			return nil, fmt.Errorf("create letter: supabase: %w", err)
		}
		out := row.toModel()
		return &out, nil
	}

	if _, err := s.GetLetter(ctx, letter.UserID, letter.ID); err != nil {
		return nil, err
	}
	var updated []letterRow
	err := s.client.DB.From(lettersTable).
		Update(map[string]any{"content": letter.Content, "job_id": letter.JobID, "updated_at": now}).
		Eq("id", letter.ID).Eq("user_id", letter.UserID).
		ExecuteWithContext(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("update letter: supabase: %w", err)
	}
	return s.GetLetter(ctx, letter.UserID, letter.ID)
}

func (s *SupabaseStore) ListLetters(ctx context.Context, userID, jobID string) ([]models.GeneratedLetter, error) {
	if checkID("list letters", jobID) != nil {
		return []models.GeneratedLetter{}, nil
	}
	var rows []letterRow
	err := s.client.DB.From(lettersTable).Select("*").
		Eq("user_id", userID).Eq("job_id", jobID).
		ExecuteWithContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list letters: supabase: %w", err)
	}
	letters := make([]models.GeneratedLetter, 0, len(rows))
	for _, r := range rows {
		if r.DeletedAt == nil {
			letters = append(letters, r.toModel())
		}
	}
	sort.Slice(letters, func(i, k int) bool { return letters[i].CreatedAt.After(letters[k].CreatedAt) })
	return letters, nil
}

func (s *SupabaseStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var rows []models.UserProfile
	if err := s.client.DB.From(profilesTable).Select("*").Eq("user_id", userID).ExecuteWithContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("get profile: supabase: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("get profile: %w", common.ErrNotFound)
	}
	return &rows[0], nil
}

func (s *SupabaseStore) SaveProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	out := *profile
	out.UpdatedAt = s.now().UTC()
	var rows []models.UserProfile
	if err := s.client.DB.From(profilesTable).Upsert(out).ExecuteWithContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("save profile: supabase: %w", err)
	}
	return &out, nil
}
