// Package assistant proxies chat questions to an external model API. The
// office system never exposes the upstream key to the browser, strips
// personal data from outbound prompts, and degrades to a fixed apology when
// the upstream is unreachable so the chat panel never hard-fails.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helmlegal/helm-backend/pkg/sanitize"
	"github.com/helmlegal/helm-backend/pkg/validation"
)

// FallbackReply is returned whenever the upstream call fails for any reason.
const FallbackReply = "Sorry, the assistant is unavailable right now. Please try again in a moment."

const systemPrompt = "You are an assistant for a legal consulting office. " +
	"Answer briefly and practically about office administration, scheduling and " +
	"general legal-consulting workflows. Do not give binding legal advice."

// Client talks to a Gemini-style generateContent endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClientFromEnv reads ASSISTANT_API_URL, ASSISTANT_API_KEY and
// ASSISTANT_MODEL. An empty URL or key yields a client that always falls
// back, which keeps local development keyless.
func NewClientFromEnv() *Client {
	model := os.Getenv("ASSISTANT_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{
		baseURL: os.Getenv("ASSISTANT_API_URL"),
		apiKey:  os.Getenv("ASSISTANT_API_KEY"),
		model:   model,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Ask sends one question upstream and returns the first candidate's text.
func (cl *Client) Ask(ctx context.Context, question string) (string, error) {
	if cl.baseURL == "" || cl.apiKey == "" {
		return "", fmt.Errorf("assistant: not configured")
	}

	payload := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: systemPrompt + "\n\n" + question}}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", cl.baseURL, cl.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", cl.apiKey)

	resp, err := cl.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant: upstream returned %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("assistant: empty response")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

type chatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type chatResponse struct {
	Reply    string `json:"reply"`
	Fallback bool   `json:"fallback"`
}

// Chat answers one assistant question. Emails and phone numbers are redacted
// before the prompt leaves the system; upstream failures return the fixed
// fallback with HTTP 200 so the panel keeps working.
//
// @Summary Ask the assistant
// @Tags assistant
// @Accept json
// @Produce json
// @Param payload body chatRequest true " "
// @Success 200 {object} chatResponse
// @Failure 400 {object} models.ValidationErrorResponse
// @Router /api/assistant/chat [post]
func (h *Handler) Chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
	}
	errs, err := validation.Validate(req)
	if err != nil {
		return err
	}
	if errs != nil {
		return validation.Respond(c, errs)
	}

	reply, err := h.client.Ask(c.Context(), sanitize.RedactPII(req.Message))
	if err != nil {
		return c.JSON(chatResponse{Reply: FallbackReply, Fallback: true})
	}
	return c.JSON(chatResponse{Reply: reply})
}

// RegisterRoutes mounts the assistant endpoint.
func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Post("/api/assistant/chat", h.Chat)
}
