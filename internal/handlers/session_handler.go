package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/dtos"
	"github.com/justsurfingit/cover-letter-agent/internal/export"
	"github.com/justsurfingit/cover-letter-agent/internal/logging"
	"github.com/justsurfingit/cover-letter-agent/internal/session"
	"github.com/justsurfingit/cover-letter-agent/internal/workflow"
)

// DocumentArchive keeps a copy of an exported letter and returns a link to it.
type DocumentArchive interface {
	Store(ctx context.Context, userID, filename, contentType string, data []byte) (*export.Stored, error)
}

// SessionHandler exposes workflow sessions: one per open generator page.
type SessionHandler struct {
	Sessions *session.Manager
	Archive  DocumentArchive
	Logger   logging.Logger

	// Locale is used when the client does not send one.
	Locale string
	// Timeout bounds a submit, which keeps running if the client goes away.
	Timeout time.Duration

	now func() time.Time
}

func NewSessionHandler(sessions *session.Manager, archive DocumentArchive, locale string, timeout time.Duration, logger logging.Logger) *SessionHandler {
	return &SessionHandler{
		Sessions: sessions,
		Archive:  archive,
		Logger:   logger,
		Locale:   locale,
		Timeout:  timeout,
		now:      time.Now,
	}
}

type sessionResponse struct {
	ID     string         `json:"id"`
	Locale string         `json:"locale"`
	State  workflow.State `json:"state"`
}

func view(ctrl *workflow.Controller) sessionResponse {
	return sessionResponse{ID: ctrl.ID(), Locale: ctrl.Locale(), State: ctrl.State()}
}

// session looks up the :id session of the current user.
func (h *SessionHandler) session(c *gin.Context) (*workflow.Controller, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	ctrl, err := h.Sessions.Get(user.ID, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return ctrl, true
}

// respond writes the session after an operation. Workflow failures are
// already part of the state; they are reported as 422 with that state.
func (h *SessionHandler) respond(c *gin.Context, ctrl *workflow.Controller, err error) {
	var werr *workflow.Error
	switch {
	case err == nil:
		c.JSON(http.StatusOK, view(ctrl))
	case errors.As(err, &werr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": werr.Msg,
			"kind":  werr.Kind,
			"phase": werr.Phase,
			"state": ctrl.State(),
		})
	default:
		abortWithError(c, err)
	}
}

// Create is POST /sessions. A job_id preloads the job on step 1, a
// letter_id preloads a saved letter on step 2. A failed preload still
// creates the session; the failure is in its state.
func (h *SessionHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dtos.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	locale := req.Locale
	if locale == "" {
		locale = h.Locale
	}

	ctrl := h.Sessions.Open(*user, locale)
	ctx := c.Request.Context()
	var err error
	switch {
	case req.LetterID != "":
		err = ctrl.FetchLetter(ctx, req.LetterID)
	case req.JobID != "":
		err = ctrl.FetchJob(ctx, req.JobID)
	}
	var werr *workflow.Error
	if err != nil && !errors.As(err, &werr) {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view(ctrl))
}

func (h *SessionHandler) Get(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view(ctrl))
}

func (h *SessionHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.Sessions.Close(user.ID, c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Fetch is POST /sessions/:id/fetch. It loads a job (step 1) or a saved
// letter (step 2) into an existing session, which is how a failed preload
// is retried after reset-error.
func (h *SessionHandler) Fetch(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req dtos.FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	switch {
	case req.JobID != "" && req.LetterID != "":
		abortWithError(c, fmt.Errorf("%w: send either job_id or letter_id, not both", common.ErrValidation))
	case req.LetterID != "":
		h.respond(c, ctrl, ctrl.FetchLetter(ctx, req.LetterID))
	case req.JobID != "":
		h.respond(c, ctrl, ctrl.FetchJob(ctx, req.JobID))
	default:
		abortWithError(c, fmt.Errorf("%w: job_id or letter_id is required", common.ErrValidation))
	}
}

// SubmitJob is POST /sessions/:id/job: save the job form and generate.
func (h *SessionHandler) SubmitJob(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req dtos.JobFormData
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, err)
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	h.respond(c, ctrl, ctrl.SubmitJob(ctx, req.ToJob()))
}

// EditLetter is PUT /sessions/:id/letter.
func (h *SessionHandler) EditLetter(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req dtos.LetterEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c, ctrl, ctrl.EditLetter(req.Content))
}

func (h *SessionHandler) SaveLetter(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, ctrl, ctrl.SaveLetter(context.WithoutCancel(c.Request.Context())))
}

func (h *SessionHandler) ResetError(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	ctrl.ResetError()
	h.respond(c, ctrl, nil)
}

func (h *SessionHandler) SetStep(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req dtos.StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "step must be 1 or 2"})
		return
	}
	h.respond(c, ctrl, ctrl.SetStep(req.Step))
}

// Events is GET /sessions/:id/events: the state stream as server-sent
// events. It ends when the client leaves or the session is closed.
func (h *SessionHandler) Events(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	updates, cancel := ctrl.Subscribe(8)
	defer cancel()

	// SSEvent sets the event-stream content type on the first event
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case s, open := <-updates:
			if !open {
				return
			}
			c.SSEvent("state", s)
			c.Writer.Flush()
		}
	}
}

// Export is GET /sessions/:id/letter/export?format=txt|pdf|docx. With
// archive=true the document goes to the archive and a download link is
// returned instead of the file.
func (h *SessionHandler) Export(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st := ctrl.State()
	if st.GeneratedLetter == nil {
		abortWithError(c, fmt.Errorf("%w: there is no cover letter to export", common.ErrValidation))
		return
	}

	doc := export.NewDocument(st.SelectedJob, st.GeneratedLetter, ctrl.Locale(), h.now())
	data, err := export.Render(doc, format)
	if err != nil {
		h.Logger.Error(c.Request.Context(), "render export failed", "session", ctrl.ID(), "format", string(format), "error", err)
		abortWithError(c, err)
		return
	}
	filename := doc.Filename(format)
	c.Header("X-Word-Count", strconv.Itoa(doc.WordCount()))

	if archive, _ := strconv.ParseBool(c.Query("archive")); archive {
		if h.Archive == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "export archive is not configured"})
			return
		}
		stored, err := h.Archive.Store(c.Request.Context(), ctrl.User().ID, filename, format.ContentType(), data)
		if err != nil {
			h.Logger.Error(c.Request.Context(), "archive export failed", "session", ctrl.ID(), "error", err)
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "could not archive the document"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"filename":   filename,
			"word_count": doc.WordCount(),
			"archive":    stored,
		})
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, format.ContentType(), data)
}
