package handlers

import (
	"net/http"

	"akut-backend/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnswerHandler handles HTTP requests for grounded answers
type AnswerHandler struct {
	answerService *service.AnswerService
	logger        *zap.Logger
}

// NewAnswerHandler creates a new answer handler
func NewAnswerHandler(answerService *service.AnswerService, logger *zap.Logger) *AnswerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerHandler{answerService: answerService, logger: logger}
}

// GroundedAnswerRequest represents the body of both answer endpoints. Fields
// are loosely typed; non-string values are converted to text.
type GroundedAnswerRequest struct {
	Slug     interface{} `json:"slug"`
	Question interface{} `json:"question"`
	Lang     interface{} `json:"lang"`
	Context  interface{} `json:"context"`
}

func (r GroundedAnswerRequest) toService() service.AnswerRequest {
	return service.AnswerRequest{
		Slug:     textValue(r.Slug),
		Question: textValue(r.Question),
		Language: textValue(r.Lang),
		Context:  textValue(r.Context),
	}
}

// GroundedAnswer handles POST /api/grounded-answer
func (h *AnswerHandler) GroundedAnswer(c *gin.Context) {
	var req GroundedAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	result, err := h.answerService.Answer(c.Request.Context(), req.toService())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GroundedAnswerStream handles GET and POST /api/grounded-answer-stream.
// POST reads a JSON body (an unreadable body counts as empty), GET reads
// the query string.
func (h *AnswerHandler) GroundedAnswerStream(c *gin.Context) {
	var req service.AnswerRequest
	if c.Request.Method == http.MethodPost {
		var body GroundedAnswerRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			body = GroundedAnswerRequest{}
		}
		req = body.toService()
	} else {
		req = service.AnswerRequest{
			Slug:     c.Query("slug"),
			Question: c.Query("question"),
			Language: c.Query("lang"),
			Context:  c.Query("context"),
		}
	}

	ctx := c.Request.Context()
	events, err := h.answerService.Stream(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}

	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	w, err := newSSEWriter(c.Writer)
	if err != nil {
		// the producer stops once the request context ends
		h.logger.Error("Streaming not supported", zap.Error(err))
		return
	}
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.writeEvent(w, ev); err != nil {
				h.logger.Warn("Failed to write stream event", zap.String("slug", req.Slug), zap.Error(err))
				return
			}
		}
	}
}

func (h *AnswerHandler) writeEvent(w *sseWriter, ev service.StreamEvent) error {
	switch ev.Kind {
	case service.StreamEventFragment:
		return w.WriteData(ev.Text)
	case service.StreamEventMeta:
		return w.WriteEvent("meta", ev.Meta)
	case service.StreamEventError:
		return w.WriteEvent("error", gin.H{"error": ev.Err.Error()})
	}
	return nil
}
