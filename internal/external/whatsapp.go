package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"outagealert/internal/types"
)

// WhatsAppClientConfig configures a WhatsAppClient.
type WhatsAppClientConfig struct {
	// Graph API base, e.g. https://graph.facebook.com/v19.0.
	APIURL        string
	PhoneNumberID string
	AccessToken   string
}

// WhatsAppClient sends text messages through the WhatsApp Cloud API.
type WhatsAppClient struct {
	base *BaseClient
	cfg  WhatsAppClientConfig
}

// NewWhatsAppClient creates a WhatsAppClient over base.
func NewWhatsAppClient(base *BaseClient, cfg WhatsAppClientConfig) *WhatsAppClient {
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &WhatsAppClient{base: base, cfg: cfg}
}

type waTextRequest struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type waResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText posts a text message to phone (E.164, "+" optional).
func (c *WhatsAppClient) SendText(ctx context.Context, phone, text string) (string, error) {
	payload := waTextRequest{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(phone, "+"),
		Type:             "text",
	}
	payload.Text.Body = text

	body, err := json.Marshal(payload)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "encode whatsapp request", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.cfg.APIURL, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "build whatsapp request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.base.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamUnavailable, "read whatsapp response", err)
	}

	var parsed waResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode >= 300 {
		msg := fmt.Sprintf("whatsapp returned %d", resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = fmt.Sprintf("%s: %s", msg, parsed.Error.Message)
		}
		code := types.ErrCodeUpstreamUnavailable
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			code = types.ErrCodeRecipientRejected
		}
		return "", types.NewAppError(code, msg, nil)
	}
	if len(parsed.Messages) == 0 {
		return "", types.NewAppError(types.ErrCodeUpstreamUnavailable, "whatsapp response carried no message id", nil)
	}
	return parsed.Messages[0].ID, nil
}

var _ WhatsAppProvider = (*WhatsAppClient)(nil)
