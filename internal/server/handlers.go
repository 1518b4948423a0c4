package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/walma-app/walma/internal/level"
	"github.com/walma-app/walma/internal/playback"
)

const maxDocumentBytes = 4 << 20

// GET /healthz
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "levels": s.catalog.Len(), "sessions": s.sessions.len()})
}

func (s *Server) completed(c *gin.Context) map[string]bool {
	done := make(map[string]bool)
	if s.events == nil {
		return done
	}
	levels, err := s.events.CompletedLevels(c.Request.Context())
	if err != nil {
		s.log.Warn("completion marks unavailable", "error", err)
		return done
	}
	for id := range levels {
		done[id] = true
	}
	return done
}

// GET /levels
func (s *Server) listLevels(c *gin.Context) {
	done := s.completed(c)
	out := make([]levelSummary, 0, s.catalog.Len())
	for _, lvl := range s.catalog.List() {
		out = append(out, summarize(lvl, done[lvl.ID]))
	}
	respondOK(c, gin.H{"levels": out})
}

// GET /levels/:id
func (s *Server) getLevel(c *gin.Context) {
	lvl, ok := s.catalog.Get(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, CodeNotFound, fmt.Errorf("level %q not found", c.Param("id")))
		return
	}
	respondOK(c, s.detail(lvl, s.completed(c)[lvl.ID]))
}

type unitProblem struct {
	Ordinal int    `json:"ordinal"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
}

func problems(units []*level.MalformedUnitError) []unitProblem {
	out := make([]unitProblem, 0, len(units))
	for _, u := range units {
		out = append(out, unitProblem{Ordinal: u.Ordinal, Field: u.Field, Reason: u.Reason})
	}
	return out
}

// POST /levels/check?name=week3.yaml&policy=skip
// Validates a level document in the request body without adding it to the
// catalog.
func (s *Server) checkLevel(c *gin.Context) {
	name := c.DefaultQuery("name", "")
	if name == "" {
		name = "upload.json"
		if strings.Contains(c.ContentType(), "yaml") {
			name = "upload.yaml"
		}
	}
	policy, err := level.ParsePolicy(c.Query("policy"))
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentBytes))
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("read body: %w", err))
		return
	}

	lvl, err := level.Decode(name, data, policy)
	if err != nil {
		var le *level.LoadError
		if !errors.As(err, &le) {
			respondError(c, http.StatusInternalServerError, CodeInternal, err)
			return
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":   CodeUnprocessable,
			"message": err.Error(),
			"units":   problems(le.Units),
		})
		return
	}
	respondOK(c, gin.H{
		"level":   s.detail(lvl, false),
		"skipped": problems(lvl.Skipped),
	})
}

type createSessionRequest struct {
	LevelID string `json:"levelId" binding:"required"`
}

// POST /sessions
func (s *Server) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	lvl, ok := s.catalog.Get(req.LevelID)
	if !ok {
		respondError(c, http.StatusNotFound, CodeNotFound, fmt.Errorf("level %q not found", req.LevelID))
		return
	}
	seq, err := playback.New(lvl, playback.Options{
		Reporter:      s.reporter,
		ReportTimeout: s.reportTimeout,
	})
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, CodeUnprocessable, err)
		return
	}
	sess := s.sessions.add(seq, s.now())
	s.log.Info("session started", "session_id", seq.SessionID(), "level_id", lvl.ID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	c.JSON(http.StatusCreated, s.view(sess))
}

// acquire looks up the session and locks it, answering 404 when it is
// unknown or was evicted meanwhile. On success the caller unlocks sess.mu.
func (s *Server) acquire(c *gin.Context) (*session, bool) {
	sess, ok := s.sessions.get(c.Param("id"))
	if ok {
		sess.mu.Lock()
		if sess.evicted {
			sess.mu.Unlock()
			ok = false
		}
	}
	if !ok {
		respondError(c, http.StatusNotFound, CodeNotFound, fmt.Errorf("session %q not found", c.Param("id")))
		return nil, false
	}
	sess.touched = s.now()
	return sess, true
}

// GET /sessions/:id
func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.acquire(c)
	if !ok {
		return
	}
	defer sess.mu.Unlock()
	respondOK(c, s.view(sess))
}

// transition applies fn under the session lock. A rejected trigger leaves
// the state untouched and answers 409.
func (s *Server) transition(c *gin.Context, name string, fn func(*playback.Sequencer) bool) {
	sess, ok := s.acquire(c)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	if !fn(sess.seq) {
		respondError(c, http.StatusConflict, CodeConflict,
			fmt.Errorf("%s is not allowed in phase %s", name, sess.seq.Phase()))
		return
	}
	if sess.seq.Phase() == playback.PhaseComplete && name == "advance" {
		s.log.Info("session complete", "session_id", sess.seq.SessionID(), "level_id", sess.seq.Level().ID)
	}
	respondOK(c, s.view(sess))
}

type selectRequest struct {
	Option *string `json:"option" binding:"required"`
}

// POST /sessions/:id/select
func (s *Server) selectOption(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	s.transition(c, "select", func(seq *playback.Sequencer) bool {
		return seq.SelectOption(*req.Option)
	})
}

// POST /sessions/:id/submit
func (s *Server) submit(c *gin.Context) {
	s.transition(c, "submit", (*playback.Sequencer).Submit)
}

// POST /sessions/:id/toggle-explanation
func (s *Server) toggleExplanation(c *gin.Context) {
	s.transition(c, "toggle-explanation", (*playback.Sequencer).ToggleExplanation)
}

// POST /sessions/:id/advance
func (s *Server) advance(c *gin.Context) {
	s.transition(c, "advance", (*playback.Sequencer).Advance)
}

// DELETE /sessions/:id
func (s *Server) abandon(c *gin.Context) {
	sess, ok := s.acquire(c)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	sess.evicted = true
	if sess.seq.Abandon() {
		s.log.Info("session abandoned", "session_id", sess.seq.SessionID(), "level_id", sess.seq.Level().ID)
	}
	s.sessions.remove(sess.seq.SessionID())
	c.Status(http.StatusNoContent)
}
