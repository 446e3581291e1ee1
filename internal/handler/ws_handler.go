package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
	ws "github.com/primepath/primepath-backend/internal/websocket"
	"github.com/rs/zerolog"
)

const wsOpTimeout = 5 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
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

// WSHandler streams a student's answer sheet over a WebSocket.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/student/sessions/:session_id/stream?token=
// Autosaves answers, submits the session and reports the remaining time.
func (h *WSHandler) SessionStream(c *gin.Context) {
	studentID, ok := studentFrom(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	// Reject before upgrading so the client gets a normal HTTP error.
	state, err := h.sessionService.State(c.Request.Context(), &studentID, sessionID)
	if err != nil {
		failWithError(c, err)
		return
	}
	if state.Session.Status != model.SessionStatusInProgress {
		response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("session_id", sessionID.String()).
		Logger()
	wsLog.Info().Msg("Student connected")

	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var done bool
		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, wsLog, studentID, sessionID, &msg)
		case ws.ActionSubmit:
			done = h.handleSubmit(conn, wsLog, studentID, sessionID)
		case ws.ActionPing:
			h.handlePing(conn, wsLog, studentID, sessionID)
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = ws.WriteError(conn, string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
		}
		if done {
			return
		}
	}
}

func (h *WSHandler) handleAutosave(conn *websocket.Conn, log zerolog.Logger, studentID int, sessionID uuid.UUID, msg *ws.Request) {
	qid, err := uuid.Parse(msg.QuestionID)
	if err != nil {
		_ = ws.WriteError(conn, string(response.ErrInvalidPayload), "question_id must be a UUID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), wsOpTimeout)
	defer cancel()
	req := model.SaveAnswerRequest{QuestionID: qid, Answer: msg.Answer}
	if err := h.sessionService.SaveAnswer(ctx, &studentID, sessionID, req); err != nil {
		h.writeServiceError(conn, log, err)
		return
	}
	_ = ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, QuestionID: qid.String()})
}

// handleSubmit completes the session and reports whether the stream should close.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, log zerolog.Logger, studentID int, sessionID uuid.UUID) bool {
	ctx, cancel := context.WithTimeout(context.Background(), wsOpTimeout)
	defer cancel()
	result, err := h.sessionService.Complete(ctx, &studentID, sessionID)
	if err != nil {
		h.writeServiceError(conn, log, err)
		return false
	}

	log.Info().Interface("score", result.Session.Score).Msg("Session submitted over WebSocket")
	_ = ws.WriteTyped(conn, ws.GradedResponse{
		Event:       ws.EventGraded,
		SessionID:   sessionID.String(),
		Score:       result.Session.Score,
		TotalPoints: result.Session.TotalPoints,
		Percentage:  result.Session.Percentage,
	})
	return true
}

func (h *WSHandler) handlePing(conn *websocket.Conn, log zerolog.Logger, studentID int, sessionID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), wsOpTimeout)
	defer cancel()
	state, err := h.sessionService.State(ctx, &studentID, sessionID)
	if err != nil {
		h.writeServiceError(conn, log, err)
		return
	}
	_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong, RemainingSeconds: state.RemainingSeconds})
}

func (h *WSHandler) writeServiceError(conn *websocket.Conn, log zerolog.Logger, err error) {
	status, code := classify(err)
	msg := response.GetMessage(code)
	switch {
	case status == http.StatusInternalServerError:
		log.Error().Err(err).Msg("WebSocket action failed")
	case code == response.ErrValidation:
		msg = err.Error()
	}
	_ = ws.WriteError(conn, string(code), msg)
}
