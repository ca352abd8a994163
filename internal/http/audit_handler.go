package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quiz-audit/internal/domain"
	"quiz-audit/internal/repository"
	"quiz-audit/internal/service"
)

// AuditHandler expone el harness por HTTP.
type AuditHandler struct {
	logger      *zap.Logger
	audits      *service.AuditService
	store       service.AuditStore
	history     repository.AuditRepository
	limiter     service.RateLimiter
	maxRounds   int
	maxAttempts int
}

// NewAuditHandler crea el handler. history y limiter pueden ser nil.
func NewAuditHandler(
	logger *zap.Logger,
	audits *service.AuditService,
	store service.AuditStore,
	history repository.AuditRepository,
	limiter service.RateLimiter,
	maxRounds, maxAttempts int,
) *AuditHandler {
	return &AuditHandler{
		logger:      logger,
		audits:      audits,
		store:       store,
		history:     history,
		limiter:     limiter,
		maxRounds:   maxRounds,
		maxAttempts: maxAttempts,
	}
}

// RunAudit maneja POST /audits. Todos los campos son opcionales.
func (h *AuditHandler) RunAudit(c *gin.Context) {
	if h.limiter != nil && !h.limiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many audit runs"})
		return
	}

	var req struct {
		Rounds   int    `json:"rounds"`
		Attempts int    `json:"attempts"`
		Seed     uint64 `json:"seed"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("invalid audit request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}
	if req.Rounds < 0 || req.Rounds > h.maxRounds {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rounds out of range", "max": h.maxRounds})
		return
	}
	if req.Attempts < 0 || req.Attempts > h.maxAttempts {
		c.JSON(http.StatusBadRequest, gin.H{"error": "attempts out of range", "max": h.maxAttempts})
		return
	}

	report, err := h.audits.Run(c.Request.Context(), service.RunParams{
		Rounds:   req.Rounds,
		Attempts: req.Attempts,
		Seed:     req.Seed,
	})
	if err != nil {
		h.logger.Error("audit run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not run audit"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"audit":     report,
		"exit_code": service.ExitCode(report),
	})
}

// GetAudit maneja GET /audits/:id.
func (h *AuditHandler) GetAudit(c *gin.Context) {
	report, ok := h.lookup(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit": report})
}

// GetLatestAudit maneja GET /audits/latest.
func (h *AuditHandler) GetLatestAudit(c *gin.Context) {
	report, err := h.store.Latest(c.Request.Context())
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit": report})
}

// GetAuditReport maneja GET /audits/:id/report y devuelve el reporte en texto plano.
func (h *AuditHandler) GetAuditReport(c *gin.Context) {
	report, ok := h.lookup(c, c.Param("id"))
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := service.WriteReport(&buf, report); err != nil {
		h.logger.Error("render report failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not render report"})
		return
	}
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, buf.String())
}

// ListAudits maneja GET /audits?limit=N usando el historial en Postgres.
func (h *AuditHandler) ListAudits(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "audit history not configured"})
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	runs, err := h.history.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list audits failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list audits"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": runs})
}

// GetQuiz maneja GET /quiz y devuelve el contenido cargado.
func (h *AuditHandler) GetQuiz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"quiz": h.audits.Quiz()})
}

// Match maneja POST /match: puntua una partida dada como "ABCD...".
func (h *AuditHandler) Match(c *gin.Context) {
	var req struct {
		Sequence string `json:"sequence" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	q := h.audits.Quiz()
	seq, err := domain.ParseAnswerSequence(req.Sequence, len(q.Questions))
	if err == nil {
		err = q.CheckSequence(seq)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.audits.Model().Match(seq)
	c.JSON(http.StatusOK, gin.H{
		"sequence": seq,
		"match":    result,
	})
}

func (h *AuditHandler) lookup(c *gin.Context, id string) (domain.AuditReport, bool) {
	report, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err)
		return domain.AuditReport{}, false
	}
	return report, true
}

func (h *AuditHandler) storeError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrAuditNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "audit not found"})
		return
	}
	h.logger.Error("audit store failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch audit"})
}
