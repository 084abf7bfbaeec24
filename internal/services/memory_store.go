package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

// MemoryStore keeps everything in process memory. Used for local runs
// without a database (DATABASE_DRIVER=memory) and in handler tests.
type MemoryStore struct {
	mu       sync.RWMutex
	jobs     map[string]models.JobPosting
	letters  map[string]models.GeneratedLetter
	profiles map[string]models.UserProfile
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:     make(map[string]models.JobPosting),
		letters:  make(map[string]models.GeneratedLetter),
		profiles: make(map[string]models.UserProfile),
		now:      time.Now,
	}
}

func (m *MemoryStore) GetJob(_ context.Context, userID, id string) (*models.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok || job.UserID != userID {
		return nil, fmt.Errorf("get job %s: %w", id, common.ErrNotFound)
	}
	return &job, nil
}

func (m *MemoryStore) SaveJob(_ context.Context, job *models.JobPosting) (*models.JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *job
	now := m.now()
	if out.ID == "" {
		out.ID = uuid.NewString()
		out.CreatedAt = now
	} else {
		prev, ok := m.jobs[out.ID]
		if !ok || prev.UserID != out.UserID {
			return nil, fmt.Errorf("update job %s: %w", out.ID, common.ErrNotFound)
		}
		out.CreatedAt = prev.CreatedAt
	}
	out.UpdatedAt = now
	m.jobs[out.ID] = out
	return &out, nil
}

func (m *MemoryStore) ListJobs(_ context.Context, userID string) ([]models.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.JobPosting, 0)
	for _, j := range m.jobs {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) DeleteJob(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.UserID != userID {
		return fmt.Errorf("delete job %s: %w", id, common.ErrNotFound)
	}
	delete(m.jobs, id)
	for lid, l := range m.letters {
		if l.JobID == id {
			delete(m.letters, lid)
		}
	}
	return nil
}

func (m *MemoryStore) GetLetter(_ context.Context, userID, id string) (*models.GeneratedLetter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.letters[id]
	if !ok || l.UserID != userID {
		return nil, fmt.Errorf("get letter %s: %w", id, common.ErrNotFound)
	}
	return &l, nil
}

func (m *MemoryStore) SaveLetter(_ context.Context, letter *models.GeneratedLetter) (*models.GeneratedLetter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[letter.JobID]; !ok || job.UserID != letter.UserID {
		return nil, fmt.Errorf("save letter for job %s: %w", letter.JobID, common.ErrNotFound)
	}
	out := *letter
	now := m.now()
	if out.ID == "" {
		out.ID = uuid.NewString()
		out.CreatedAt = now
	} else {
		prev, ok := m.letters[out.ID]
		if !ok || prev.UserID != out.UserID {
			return nil, fmt.Errorf("update letter %s: %w", out.ID, common.ErrNotFound)
		}
		out.CreatedAt = prev.CreatedAt
	}
	out.UpdatedAt = now
	m.letters[out.ID] = out
	return &out, nil
}

func (m *MemoryStore) ListLetters(_ context.Context, userID, jobID string) ([]models.GeneratedLetter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.GeneratedLetter, 0)
	for _, l := range m.letters {
		if l.UserID == userID && l.JobID == jobID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("get profile: %w", common.ErrNotFound)
	}
	return &p, nil
}

func (m *MemoryStore) SaveProfile(_ context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *profile
	out.UpdatedAt = m.now()
	m.profiles[out.UserID] = out
	return &out, nil
}
