// Package workflow implements the cover letter generation workflow: a
// two-step wizard that takes a job posting, calls the generation service
// and lets the user review, edit and save the resulting letter.
//
// A Controller owns the state of one workflow session. Operations block
// until the external call they make returns; at most one such operation
// runs at a time. Every failure is converted into a typed *Error and its
// message is published as the state's generation error, so the session
// stays usable after any failure.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/logging"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

// Store is the part of the Job Record Store the workflow needs.
type Store interface {
	GetJob(ctx context.Context, userID, id string) (*models.JobPosting, error)
	SaveJob(ctx context.Context, job *models.JobPosting) (*models.JobPosting, error)
	GetLetter(ctx context.Context, userID, id string) (*models.GeneratedLetter, error)
	SaveLetter(ctx context.Context, letter *models.GeneratedLetter) (*models.GeneratedLetter, error)
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// ProgressFunc receives the generator's own completion estimate, 0..100.
type ProgressFunc func(percent int)

// Generator turns a job and a profile into cover letter text.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest, progress ProgressFunc) (string, error)
}

// Progress checkpoints for a submit attempt. Generator-reported progress is
// scaled into [progressGenerationStart, progressGenerationEnd].
const (
	progressUserFetch       = 5
	progressJobSave         = 15
	progressGenerationStart = 20
	progressGenerationEnd   = 95
)

type Option func(*Controller)

func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithLocale sets the locale sent to the generator and used for messages.
func WithLocale(locale string) Option {
	return func(c *Controller) { c.locale = locale }
}

func WithID(id string) Option {
	return func(c *Controller) { c.id = id }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithObserver registers fn to receive every published snapshot, in order.
// fn runs under the controller lock and must not call back into it.
func WithObserver(fn func(State)) Option {
	return func(c *Controller) { c.observers = append(c.observers, fn) }
}

type Controller struct {
	id        string
	user      models.User
	store     Store
	generator Generator
	logger    logging.Logger
	locale    string
	danish    bool
	now       func() time.Time

	mu        sync.Mutex
	state     State
	alive     bool
	busy      bool
	attempt   uint64
	observers []func(State)
	subs      map[int]chan State
	nextSub   int
}

// New creates a controller for one user's workflow session, at step 1 with
// nothing selected.
func New(user models.User, store Store, generator Generator, opts ...Option) *Controller {
	c := &Controller{
		user:      user,
		store:     store,
		generator: generator,
		logger:    logging.Discard(),
		locale:    "da-DK",
		now:       time.Now,
		state:     State{Step: StepJobDetails},
		alive:     true,
		subs:      make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.danish = isDanish(c.locale)
	c.logger = c.logger.With("session", c.id, "user_id", user.ID)
	return c
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) User() models.User { return c.user }

func (c *Controller) Locale() string { return c.locale }

// State returns a deep copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Alive reports whether Close has not been called yet.
func (c *Controller) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// Close tears the session down. Outstanding calls finish, but their results
// are dropped. Subscriber channels are closed. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		return
	}
	c.alive = false
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.logger.Info(context.Background(), "workflow session closed")
}

// Subscribe returns a channel that first receives the current state and then
// every subsequent snapshot. A slow reader loses intermediate snapshots but
// always gets the latest one. The channel is closed by cancel or Close.
func (c *Controller) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.state.clone()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			close(sub)
			delete(c.subs, id)
		}
	}
	return ch, cancel
}

// publishLocked delivers the current state. Callers hold c.mu.
func (c *Controller) publishLocked() {
	snap := c.state.clone()
	for _, fn := range c.observers {
		fn(snap.clone())
	}
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// drop the oldest snapshot to make room for the latest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// begin claims the session for one outstanding call and applies mutate.
func (c *Controller) begin(mutate func(s *State)) error {
	return c.beginOnStep(0, mutate)
}

// beginOnStep is begin restricted to one step; 0 allows any step. A session
// on another step is left untouched.
func (c *Controller) beginOnStep(step int, mutate func(s *State)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		return ErrClosed
	}
	if c.busy {
		return common.ErrBusy
	}
	if step != 0 && c.state.Step != step {
		return fmt.Errorf("%w: this action needs step %d, the session is on step %d", common.ErrValidation, step, c.state.Step)
	}
	c.busy = true
	c.attempt++
	mutate(&c.state)
	c.publishLocked()
	return nil
}

// resume applies mutate after a suspension point. It returns false when the
// session was closed meanwhile, in which case nothing is applied.
func (c *Controller) resume(mutate func(s *State)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		return false
	}
	mutate(&c.state)
	c.publishLocked()
	return true
}

// finish releases the session and applies mutate if it is still alive.
func (c *Controller) finish(mutate func(s *State)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if !c.alive {
		return false
	}
	mutate(&c.state)
	c.publishLocked()
	return true
}

// fail ends the outstanding call with a published error. Step, selected job,
// letter and unsaved edits are left as they are.
func (c *Controller) fail(ctx context.Context, kind Kind, phase Phase, msg string, cause error) error {
	werr := &Error{Kind: kind, Phase: phase, Msg: msg, Err: cause}
	if !c.finish(func(s *State) {
		s.stopLoading()
		s.Error = msg
		s.ErrorPhase = phase
	}) {
		return ErrClosed
	}
	c.logger.Error(ctx, "workflow operation failed", "kind", string(kind), "phase", string(phase), "error", cause)
	return werr
}

// FetchJob loads a job posting and selects it on step 1 so the user can
// review it before generating.
func (c *Controller) FetchJob(ctx context.Context, jobID string) error {
	if err := c.begin(func(s *State) {
		s.startLoading(LoadingInitializing, c.now())
		s.Message = initializingMessage[c.danish]
		s.Error = ""
		s.ErrorPhase = ""
	}); err != nil {
		return err
	}

	job, err := c.store.GetJob(ctx, c.user.ID, jobID)
	if err != nil {
		return c.fail(ctx, KindFetch, "", fetchMessage("job posting", err), err)
	}

	if !c.finish(func(s *State) {
		s.stopLoading()
		c.selectJobLocked(s, job)
		s.Step = StepJobDetails
	}) {
		return ErrClosed
	}
	c.logger.Info(ctx, "job fetched", "job_id", job.ID)
	return nil
}

// FetchLetter loads a saved letter and its job posting and moves to step 2.
func (c *Controller) FetchLetter(ctx context.Context, letterID string) error {
	if err := c.begin(func(s *State) {
		s.startLoading(LoadingInitializing, c.now())
		s.Message = initializingMessage[c.danish]
		s.Error = ""
		s.ErrorPhase = ""
	}); err != nil {
		return err
	}

	letter, err := c.store.GetLetter(ctx, c.user.ID, letterID)
	if err != nil {
		return c.fail(ctx, KindFetch, "", fetchMessage("cover letter", err), err)
	}
	if !c.Alive() {
		c.release()
		return ErrClosed
	}

	job, err := c.store.GetJob(ctx, c.user.ID, letter.JobID)
	if err != nil {
		return c.fail(ctx, KindFetch, "", fetchMessage("job posting for this cover letter", err), err)
	}

	if !c.finish(func(s *State) {
		s.stopLoading()
		s.SelectedJob = job
		s.GeneratedLetter = letter
		s.UnsavedChanges = false
		s.Step = StepReview
	}) {
		return ErrClosed
	}
	c.logger.Info(ctx, "letter fetched", "letter_id", letter.ID, "job_id", job.ID)
	return nil
}

// SubmitJob saves the job, generates a letter for it and, only when both
// succeed, moves to step 2 with the new (unsaved) letter.
//
// If a job is selected and job.ID is empty, the selected job is updated
// instead of creating a new one. Submitting is only possible on step 1.
func (c *Controller) SubmitJob(ctx context.Context, job *models.JobPosting) error {
	if job == nil {
		return fmt.Errorf("%w: job is required", common.ErrValidation)
	}
	var attempt uint64
	if err := c.beginOnStep(StepJobDetails, func(s *State) {
		s.startLoading(LoadingGenerating, c.now())
		s.Error = ""
		s.ErrorPhase = ""
		s.Phase = PhaseUserFetch
		s.Message = c.phaseMessage(PhaseUserFetch)
		s.Progress = &Progress{Progress: progressUserFetch, Message: s.Message}
		attempt = c.attempt
	}); err != nil {
		return err
	}
	log := c.logger.With("attempt", attempt)

	// user-fetch: snapshot the profile for this attempt
	profile, err := c.store.GetProfile(ctx, c.user.ID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		profile = &models.UserProfile{UserID: c.user.ID}
	case err != nil:
		return c.fail(ctx, KindFetch, PhaseUserFetch, fetchMessage("profile", err), err)
	}
	if profile.Name == "" {
		profile.Name = c.user.Name
	}
	if profile.Email == "" {
		profile.Email = c.user.Email
	}

	// job-save
	toSave := *job
	toSave.UserID = c.user.ID
	if !c.resume(func(s *State) {
		if toSave.ID == "" && s.SelectedJob != nil {
			toSave.ID = s.SelectedJob.ID
			toSave.CreatedAt = s.SelectedJob.CreatedAt
		}
		c.enterPhaseLocked(s, PhaseJobSave, progressJobSave)
	}) {
		c.release()
		return ErrClosed
	}
	log.Info(ctx, "saving job", "phase", string(PhaseJobSave), "job_id", toSave.ID)

	saved, err := c.store.SaveJob(ctx, &toSave)
	if err != nil {
		return c.fail(ctx, KindSave, PhaseJobSave, "could not save the job details: "+err.Error(), err)
	}

	// generation
	if !c.resume(func(s *State) {
		c.selectJobLocked(s, saved)
		c.enterPhaseLocked(s, PhaseGeneration, progressGenerationStart)
	}) {
		c.release()
		return ErrClosed
	}
	log.Info(ctx, "generating letter", "phase", string(PhaseGeneration), "job_id", saved.ID)

	req := models.NewGenerationRequest(saved, profile, c.locale)
	content, err := c.generator.Generate(ctx, req, func(percent int) {
		c.reportProgress(attempt, percent)
	})
	if err != nil {
		return c.fail(ctx, KindGeneration, PhaseGeneration, "cover letter generation failed: "+err.Error(), err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return c.fail(ctx, KindGeneration, PhaseGeneration, "no content received from the generation service", nil)
	}

	now := c.now()
	if !c.finish(func(s *State) {
		s.stopLoading()
		s.GeneratedLetter = &models.GeneratedLetter{
			UserID:    c.user.ID,
			JobID:     saved.ID,
			Content:   content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.UnsavedChanges = true
		s.Error = ""
		s.ErrorPhase = ""
		s.Step = StepReview
	}) {
		return ErrClosed
	}
	log.Info(ctx, "letter generated", "job_id", saved.ID, "chars", len(content))
	return nil
}

// EditLetter replaces the letter content in memory only.
func (c *Controller) EditLetter(content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case !c.alive:
		return ErrClosed
	case c.busy:
		return common.ErrBusy
	case c.state.GeneratedLetter == nil:
		return fmt.Errorf("%w: there is no cover letter to edit", common.ErrValidation)
	}
	if c.state.GeneratedLetter.Content == content {
		return nil
	}
	c.state.GeneratedLetter.Content = content
	c.state.GeneratedLetter.UpdatedAt = c.now()
	c.state.UnsavedChanges = true
	c.publishLocked()
	return nil
}

// SaveLetter persists the current letter, including local edits. On failure
// the edits stay in memory so the save can be retried.
func (c *Controller) SaveLetter(ctx context.Context) error {
	var letter models.GeneratedLetter
	var hasLetter bool
	if err := c.begin(func(s *State) {
		if s.GeneratedLetter != nil {
			hasLetter = true
			letter = *s.GeneratedLetter
			if s.SelectedJob != nil {
				letter.JobID = s.SelectedJob.ID
			}
		}
		s.startLoading(LoadingSaving, c.now())
		s.Phase = PhaseLetterSave
		s.Message = c.phaseMessage(PhaseLetterSave)
	}); err != nil {
		return err
	}
	if !hasLetter {
		return c.fail(ctx, KindSave, PhaseLetterSave, "there is no cover letter to save", nil)
	}
	letter.UserID = c.user.ID

	saved, err := c.store.SaveLetter(ctx, &letter)
	if err != nil {
		return c.fail(ctx, KindSave, PhaseLetterSave, "could not save the cover letter: "+err.Error(), err)
	}

	if !c.finish(func(s *State) {
		s.stopLoading()
		s.GeneratedLetter = saved
		s.UnsavedChanges = false
		s.Error = ""
		s.ErrorPhase = ""
	}) {
		return ErrClosed
	}
	c.logger.Info(ctx, "letter saved", "letter_id", saved.ID, "job_id", saved.JobID)
	return nil
}

// ResetError clears the published error and nothing else.
func (c *Controller) ResetError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive || (c.state.Error == "" && c.state.ErrorPhase == "") {
		return
	}
	c.state.Error = ""
	c.state.ErrorPhase = ""
	c.publishLocked()
}

// SetStep navigates between the wizard steps. The letter is kept, so going
// back to step 2 shows the previous result without regenerating.
func (c *Controller) SetStep(step int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case !c.alive:
		return ErrClosed
	case c.busy:
		return common.ErrBusy
	case step != StepJobDetails && step != StepReview:
		return fmt.Errorf("%w: step must be 1 or 2", common.ErrValidation)
	case step == StepReview && c.state.GeneratedLetter == nil:
		return fmt.Errorf("%w: no cover letter to review yet", common.ErrValidation)
	}
	if c.state.Step == step {
		return nil
	}
	c.state.Step = step
	c.publishLocked()
	return nil
}

// reportProgress republishes generator progress for the given attempt,
// scaled into the generation band. Values never move backwards.
func (c *Controller) reportProgress(attempt uint64, percent int) {
	percent = clamp(percent, 0, 100)
	value := progressGenerationStart + percent*(progressGenerationEnd-progressGenerationStart)/100

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive || attempt != c.attempt || c.state.Phase != PhaseGeneration || c.state.Progress == nil {
		return
	}
	if value <= c.state.Progress.Progress {
		return
	}
	c.state.Progress.Progress = value
	c.publishLocked()
}

// release frees the session after a closed resume without publishing.
func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

func (c *Controller) enterPhaseLocked(s *State, p Phase, progress int) {
	s.Phase = p
	s.Message = c.phaseMessage(p)
	if s.Progress == nil {
		s.Progress = &Progress{}
	}
	if progress > s.Progress.Progress {
		s.Progress.Progress = progress
	}
	s.Progress.Message = s.Message
}

// selectJobLocked keeps the letter only if it belongs to the new job.
func (c *Controller) selectJobLocked(s *State, job *models.JobPosting) {
	s.SelectedJob = job
	if s.GeneratedLetter != nil && s.GeneratedLetter.JobID != job.ID {
		s.GeneratedLetter = nil
		s.UnsavedChanges = false
		if s.Step == StepReview {
			s.Step = StepJobDetails
		}
	}
}

func fetchMessage(what string, err error) string {
	if errors.Is(err, common.ErrNotFound) {
		return what + " not found"
	}
	return "could not load " + what + ": " + err.Error()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
