package controllers

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gitcordhq/gitcord/internal/metrics"
	"github.com/gitcordhq/gitcord/internal/providers"
	"github.com/gitcordhq/gitcord/internal/services"
	"github.com/gitcordhq/gitcord/pkg/domain"
)

// Interaction wire constants, per the Discord interactions API.
const (
	interactionPing               = 1
	interactionApplicationCommand = 2

	responsePong           = 1
	responseChannelMessage = 4

	optionSubCommand      = 1
	optionSubCommandGroup = 2
)

type interactionOption struct {
	Name    string              `json:"name"`
	Type    int                 `json:"type"`
	Value   any                 `json:"value,omitempty"`
	Options []interactionOption `json:"options,omitempty"`
}

type interactionData struct {
	Name    string              `json:"name"`
	Options []interactionOption `json:"options,omitempty"`
}

type interactionRequest struct {
	Type      int             `json:"type"`
	ChannelID string          `json:"channel_id"`
	Data      interactionData `json:"data"`
}

type interactionsController struct {
	commands  services.CommandService
	publicKey ed25519.PublicKey
	logger    *slog.Logger
}

// NewInteractionsController builds the Discord interactions endpoint. The
// public key is the application's hex-encoded Ed25519 verification key; an
// empty key disables signature checks (local development only).
func NewInteractionsController(commands services.CommandService, publicKeyHex string, logger *slog.Logger) (*interactionsController, error) {
	var key ed25519.PublicKey
	if publicKeyHex != "" {
		raw, err := hex.DecodeString(publicKeyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid discord public key: %w", err)
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid discord public key length: %d", len(raw))
		}
		key = ed25519.PublicKey(raw)
	}
	return &interactionsController{commands: commands, publicKey: key, logger: logger}, nil
}

func (h *interactionsController) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	if h.publicKey != nil {
		sig := c.GetHeader("X-Signature-Ed25519")
		ts := c.GetHeader("X-Signature-Timestamp")
		if !verifyInteraction(h.publicKey, ts, body, sig) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid request signature"})
			return
		}
	}

	var req interactionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	switch req.Type {
	case interactionPing:
		c.JSON(http.StatusOK, gin.H{"type": responsePong})
	case interactionApplicationCommand:
		inv := flattenCommand(req)
		reply := h.commands.Handle(c.Request.Context(), inv)
		c.JSON(http.StatusOK, interactionResponse(reply))
	default:
		metrics.CommandsTotal.WithLabelValues("unknown", "unsupported_type").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported interaction type"})
	}
}

func verifyInteraction(key ed25519.PublicKey, timestamp string, body []byte, signatureHex string) bool {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := append([]byte(timestamp), body...)
	return ed25519.Verify(key, msg, sig)
}

// flattenCommand maps an application command onto an invocation. Slash
// commands registered as subcommands of a root (e.g. /gitcord subscribe)
// collapse one level so the handler sees the leaf name.
func flattenCommand(req interactionRequest) domain.CommandInvocation {
	name := req.Data.Name
	options := req.Data.Options
	if len(options) == 1 && (options[0].Type == optionSubCommand || options[0].Type == optionSubCommandGroup) {
		name = options[0].Name
		options = options[0].Options
	}

	args := make(map[string]string, len(options))
	for _, opt := range options {
		args[opt.Name] = optionString(opt.Value)
	}
	return domain.CommandInvocation{Name: name, ChannelID: req.ChannelID, Args: args}
}

func optionString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func interactionResponse(reply domain.Reply) gin.H {
	data := gin.H{}
	if reply.Content != "" {
		data["content"] = reply.Content
	}
	if reply.Embed != nil {
		data["embeds"] = []providers.WireEmbed{providers.ToWireEmbed(*reply.Embed)}
	}
	return gin.H{"type": responseChannelMessage, "data": data}
}
