package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"flowcore-server/services/message-worker/internal/domain/worker"
	"flowcore-server/services/message-worker/internal/domain/workspace"
	"flowcore-server/services/message-worker/internal/infrastructure/channel"
	"flowcore-server/services/message-worker/internal/infrastructure/metrics"
)

const twilioSignatureHeader = "X-Twilio-Signature"

// emptyTwiML tells Twilio we handled the message and have no synchronous
// reply; all replies go out through the worker pipeline.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// WebhookHandler receives inbound WhatsApp messages from Twilio.
type WebhookHandler struct {
	ingestor    *worker.Ingestor
	connections workspace.ConnectionRepository
	audits      workspace.AuditRepository
	log         zerolog.Logger
}

func NewWebhookHandler(
	ingestor *worker.Ingestor,
	connections workspace.ConnectionRepository,
	audits workspace.AuditRepository,
	logger zerolog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		ingestor:    ingestor,
		connections: connections,
		audits:      audits,
		log:         logger.With().Str("component", "webhook_handler").Logger(),
	}
}

// HandleWhatsApp handles POST /webhooks/whatsapp?workspace_id=...
//
// Twilio retries deliveries that do not get a 2xx, so internal failures are
// logged and audited but still answered with 200: message idempotency makes
// the retry safe, and a retry storm helps nobody.
func (h *WebhookHandler) HandleWhatsApp(c *gin.Context) {
	ctx := c.Request.Context()

	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		c.String(http.StatusBadRequest, "workspace_id is required")
		metrics.RecordWebhook("missing_workspace")
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "invalid form body")
		metrics.RecordWebhook("bad_form")
		return
	}

	if !h.verifySignature(c, workspaceID) {
		metrics.RecordWebhook("invalid_signature")
		c.String(http.StatusForbidden, "signature verification failed")
		return
	}

	in := worker.InboundMessage{
		WorkspaceID:       workspaceID,
		From:              c.PostForm("From"),
		Body:              c.PostForm("Body"),
		ProviderMessageID: c.PostForm("MessageSid"),
		ProfileName:       c.PostForm("ProfileName"),
		MediaURL:          c.PostForm("MediaUrl0"),
	}
	if in.From == "" {
		c.String(http.StatusBadRequest, "From is required")
		metrics.RecordWebhook("bad_form")
		return
	}

	result, err := h.ingestor.Ingest(ctx, in)
	if err != nil {
		h.log.Error().Err(err).
			Str("workspace_id", workspaceID).
			Str("provider_message_id", in.ProviderMessageID).
			Msg("webhook ingestion failed")
		h.audit(c, workspaceID, "ingest_failed", map[string]any{
			"error":               err.Error(),
			"provider_message_id": in.ProviderMessageID,
		})
		metrics.RecordWebhook("error")
	} else {
		metrics.RecordWebhook(string(result))
	}

	c.Data(http.StatusOK, "text/xml", []byte(emptyTwiML))
}

// verifySignature checks X-Twilio-Signature against the workspace auth
// token. Workspaces without a connection or token skip validation; that is
// the sandbox/dev posture.
func (h *WebhookHandler) verifySignature(c *gin.Context, workspaceID string) bool {
	conn, err := h.connections.GetChannelConnection(c.Request.Context(), workspaceID)
	if err != nil {
		h.log.Error().Err(err).Str("workspace_id", workspaceID).Msg("load channel connection")
		return true
	}
	if conn == nil || conn.AuthToken == "" {
		return true
	}

	if channel.ValidateSignature(conn.AuthToken, requestURL(c), c.Request.PostForm, c.GetHeader(twilioSignatureHeader)) {
		return true
	}

	h.log.Warn().Str("workspace_id", workspaceID).Msg("webhook signature rejected")
	h.audit(c, workspaceID, "signature_rejected", map[string]any{
		"remote_ip": c.ClientIP(),
	})
	return false
}

func (h *WebhookHandler) audit(c *gin.Context, workspaceID, action string, details map[string]any) {
	entry := &workspace.AuditLog{
		WorkspaceID: workspaceID,
		EntityType:  "webhook",
		Action:      action,
		Details:     details,
	}
	if err := h.audits.Insert(c.Request.Context(), entry); err != nil {
		h.log.Error().Err(err).Str("action", action).Msg("write audit log")
	}
}

// requestURL rebuilds the externally visible URL Twilio signed, honouring
// the proxy forwarding headers.
func requestURL(c *gin.Context) string {
	scheme := c.GetHeader("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if c.Request.TLS == nil {
			scheme = "http"
		}
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return scheme + "://" + host + c.Request.URL.RequestURI()
}
