package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/client"

	"github.com/meikuraledutech/workflow"
)

const (
	// HTTPTimeout bounds every outbound request made by an http node.
	HTTPTimeout = 30 * time.Second
	// HTTPMaxRedirects is how many redirects a GET or HEAD node follows.
	HTTPMaxRedirects = 5
)

// HTTPExecutor issues one request per node. The response status is not
// inspected: any response that completes is a success.
type HTTPExecutor struct {
	client  *client.Client
	timeout time.Duration
}

func NewHTTPExecutor() *HTTPExecutor {
	return &HTTPExecutor{client: client.New(), timeout: HTTPTimeout}
}

func (h *HTTPExecutor) Execute(ctx context.Context, node workflow.Node, _ *Context) (any, error) {
	req := h.client.R().
		SetContext(ctx).
		SetMethod(strings.ToUpper(stringField(node.Data, "method", fiber.MethodGet))).
		SetURL(stringField(node.Data, "url", "")).
		SetTimeout(h.timeout).
		SetMaxRedirects(HTTPMaxRedirects)

	if headers, ok := node.Data["headers"].(map[string]any); ok {
		for k, v := range headers {
			req.SetHeader(k, fmt.Sprint(v))
		}
	}

	if body, ok := requestBody(node.Data["body"]); ok {
		if s, isString := body.(string); isString {
			req.SetRawBody([]byte(s))
		} else {
			raw, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("HTTP request failed: encode body: %w", err)
			}
			if len(req.Header(fiber.HeaderContentType)) == 0 {
				req.SetHeader(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			}
			req.SetRawBody(raw)
		}
	}

	resp, err := req.Send()
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Close()

	return decodeBody(resp.Body()), nil
}

// requestBody reports whether the node carries a body worth sending.
// Empty and zero values count as no body.
func requestBody(v any) (any, bool) {
	switch b := v.(type) {
	case nil:
		return nil, false
	case string:
		return b, b != ""
	case bool:
		return b, b
	case float64:
		return b, b != 0
	default:
		return b, true
	}
}

// decodeBody returns the JSON value of body when it is JSON, else the body text.
func decodeBody(body []byte) any {
	if len(body) > 0 && json.Valid(body) {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	}
	return string(body)
}
