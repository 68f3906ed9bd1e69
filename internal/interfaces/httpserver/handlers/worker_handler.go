package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"flowcore-server/services/message-worker/internal/domain/queue"
	"flowcore-server/services/message-worker/internal/domain/worker"
)

// WorkerHandler exposes manual queue operations. The crontab drives the
// queue in production; these endpoints exist for operators and tests.
type WorkerHandler struct {
	processor *worker.Processor
	queue     queue.Queue
	log       zerolog.Logger
}

func NewWorkerHandler(processor *worker.Processor, q queue.Queue, logger zerolog.Logger) *WorkerHandler {
	return &WorkerHandler{
		processor: processor,
		queue:     q,
		log:       logger.With().Str("component", "worker_handler").Logger(),
	}
}

// RunBatch handles POST /v1/worker/run.
func (h *WorkerHandler) RunBatch(c *gin.Context) {
	claimed, err := h.processor.RunBatch(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("manual batch run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"claimed": claimed})
}

// QueueDepth handles GET /v1/worker/queue.
func (h *WorkerHandler) QueueDepth(c *gin.Context) {
	depth, err := h.queue.Depth(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("queue depth lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": depth})
}
