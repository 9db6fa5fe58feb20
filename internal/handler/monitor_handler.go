package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/provus/provus-backend/internal/middleware"
	"github.com/provus/provus-backend/internal/service"
	"github.com/rs/zerolog"
)

// monitorInterval is how often the monitor pushes a fresh snapshot.
const monitorInterval = 5 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live attempt snapshots to the exam owner over
// WebSocket while an exam is running.
type MonitorHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "monitor_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ExamMonitorStream godoc
// WS /ws/v1/teacher/exams/:id/monitor?token=...
// Upgrades to WebSocket and pushes the exam's attempt list every few
// seconds until the client disconnects.
func (h *MonitorHandler) ExamMonitorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	// Ownership is checked before upgrading so a rejected caller gets a
	// proper HTTP status instead of a dropped socket.
	ident := claims.Identity()
	if _, err := h.attemptService.ListByExam(c.Request.Context(), ident, examID); err != nil {
		failFromService(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("teacher_id", ident.UserID.String()).
		Str("exam_id", examID.String()).
		Logger()
	wsLog.Info().Msg("Monitor connected")

	// Reader goroutine: drain control frames and detect disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		attempts, err := h.attemptService.ListByExam(c.Request.Context(), ident, examID)
		if err != nil {
			wsLog.Error().Err(err).Msg("Snapshot failed")
			return
		}

		snapshot := gin.H{
			"exam_id":  examID,
			"attempts": attempts,
			"sent_at":  time.Now().UTC().Format(time.RFC3339),
		}
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(snapshot); err != nil {
			wsLog.Debug().Msg("Monitor disconnected")
			return
		}

		select {
		case <-done:
			wsLog.Debug().Msg("Monitor closed by client")
			return
		case <-ticker.C:
		}
	}
}
