package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/template"
)

type webhookHandler struct {
	url          string
	method       string
	bodyTemplate string
	headers      map[string]string
	deps         Deps
}

type WebhookFactory struct{}

func (WebhookFactory) Type() models.ActionType { return models.ActionTypeCallWebhook }

func (WebhookFactory) Create(config map[string]any, deps Deps) (Handler, error) {
	url := stringConfig(config, "url")
	if url == "" {
		return nil, configErrorf("CALL_WEBHOOK: url is required")
	}

	method := strings.ToUpper(stringConfig(config, "method"))
	if method == "" {
		method = http.MethodPost
	}

	headers := make(map[string]string)
	if configured, ok := config["headers"].(map[string]any); ok {
		for k, v := range configured {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	return &webhookHandler{
		url:          url,
		method:       method,
		bodyTemplate: stringConfig(config, "body_template"),
		headers:      headers,
		deps:         deps,
	}, nil
}

// Execute performs the outbound call. A non-2xx response is captured in the
// result, not raised: webhook targets misbehaving must not abort pipelines
// by default.
func (h *webhookHandler) Execute(ctx context.Context, ectx ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	var body string
	if h.bodyTemplate != "" {
		body = template.Interpolate(h.bodyTemplate, ectx.Record)
	} else {
		encoded, err := json.Marshal(ectx.Record)
		if err != nil {
			return nil, fmt.Errorf("CALL_WEBHOOK: failed to encode record: %w", err)
		}

		body = string(encoded)
	}

	url := template.Interpolate(h.url, ectx.Record)

	req, err := http.NewRequestWithContext(ctx, h.method, url, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("CALL_WEBHOOK: failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for k, v := range h.headers {
		req.Header.Set(k, template.Interpolate(v, ectx.Record))
	}

	resp, err := h.deps.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("CALL_WEBHOOK: request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("CALL_WEBHOOK: failed to read response: %w", err)
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300

	logger.InfoContext(ctx, "Webhook called",
		"url", url,
		"method", h.method,
		"status", resp.StatusCode,
		"success", success)

	return map[string]any{
		"success":  success,
		"status":   resp.StatusCode,
		"response": string(responseBody),
	}, nil
}
