package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

func TestMemoryStore_JobLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { tick = tick.Add(time.Minute); return tick }

	first, err := m.SaveJob(ctx, &models.JobPosting{UserID: "u1", Title: "First", Company: "A"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	second, err := m.SaveJob(ctx, &models.JobPosting{UserID: "u1", Title: "Second", Company: "B"})
	require.NoError(t, err)

	jobs, err := m.ListJobs(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID, "newest first")

	upd := *first
	upd.Title = "First (revised)"
	got, err := m.SaveJob(ctx, &upd)
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, got.CreatedAt)
	assert.Equal(t, "First (revised)", got.Title)

	_, err = m.GetJob(ctx, "u2", first.ID)
	assert.ErrorIs(t, err, common.ErrNotFound, "other users cannot see the job")

	require.NoError(t, m.DeleteJob(ctx, "u1", first.ID))
	assert.ErrorIs(t, m.DeleteJob(ctx, "u1", first.ID), common.ErrNotFound)
}

func TestMemoryStore_Letters(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	job, err := m.SaveJob(ctx, &models.JobPosting{UserID: "u1", Title: "Go Dev", Company: "Acme"})
	require.NoError(t, err)

	_, err = m.SaveLetter(ctx, &models.GeneratedLetter{UserID: "u2", JobID: job.ID, Content: "x"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	letter, err := m.SaveLetter(ctx, &models.GeneratedLetter{UserID: "u1", JobID: job.ID, Content: "Dear"})
	require.NoError(t, err)

	letter.Content = "Dear Sir or Madam"
	_, err = m.SaveLetter(ctx, letter)
	require.NoError(t, err)

	got, err := m.GetLetter(ctx, "u1", letter.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dear Sir or Madam", got.Content)

	list, err := m.ListLetters(ctx, "u1", job.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, m.DeleteJob(ctx, "u1", job.ID))
	_, err = m.GetLetter(ctx, "u1", letter.ID)
	assert.ErrorIs(t, err, common.ErrNotFound, "letters go with their job")
}

func TestMemoryStore_Profile(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, err := m.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = m.SaveProfile(ctx, &models.UserProfile{UserID: "u1", Name: "Jane", Skills: "Go"})
	require.NoError(t, err)

	p, err := m.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Go", p.Skills)
}
