package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const systemPrompt = `You are the assistant of an ERP system for a computer hardware shop.
Use the tools to look up products, orders and reports and to create or change orders and stock.
Never invent product ids: look them up with get_products first.
When a tool reports an error, explain it to the user instead of retrying blindly.
Answer in the language of the user.`

// historyLimit bounds the remembered conversation, in messages.
const historyLimit = 20

// LLMConfig configures the chat model client.
type LLMConfig struct {
	URL           string
	Model         string
	MaxIterations int
	Timeout       time.Duration
}

func (c *LLMConfig) setDefaults() {
	if c.URL == "" {
		c.URL = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = "qwen2.5"
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
}

// UnavailableError reports that the model server could not be reached or
// refused the request.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string { return "model unavailable: " + e.Err.Error() }

func (e *UnavailableError) Unwrap() error { return e.Err }

// Reply is the answer to one user message.
type Reply struct {
	Text string
	// ToolCalls lists the tools invoked while answering, in order.
	ToolCalls []string
}

type message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
	ToolName  string     `json:"tool_name,omitempty"`
}

type toolCall struct {
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Tools    []tool    `json:"tools"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message message `json:"message"`
	Error   string  `json:"error"`
}

// LLM answers messages with a tool-calling chat model. The conversation is
// shared by all callers; turns are serialized.
type LLM struct {
	cfg    LLMConfig
	exec   *Executor
	client *http.Client

	mu      sync.Mutex
	history []message
}

// NewLLM creates a model client executing tools with exec.
func NewLLM(cfg LLMConfig, exec *Executor, tp trace.TracerProvider) *LLM {
	cfg.setDefaults()
	return &LLM{
		cfg:  cfg,
		exec: exec,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport, otelhttp.WithTracerProvider(tp)),
		},
	}
}

// Reset forgets the conversation.
func (l *LLM) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = nil
}

// Chat sends text to the model and runs the tools it asks for until it
// answers without tool calls or MaxIterations rounds pass. Tool failures are
// returned to the model; only a failing model server ends the turn with an
// error.
func (l *LLM) Chat(ctx context.Context, text string) (Reply, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lg := zctx.From(ctx)
	msgs := make([]message, 0, len(l.history)+4)
	msgs = append(msgs, message{Role: "system", Content: systemPrompt})
	msgs = append(msgs, l.history...)
	msgs = append(msgs, message{Role: "user", Content: text})

	var reply Reply
	for i := 0; i < l.cfg.MaxIterations; i++ {
		resp, err := l.send(ctx, msgs)
		if err != nil {
			return reply, err
		}
		msgs = append(msgs, resp)
		if len(resp.ToolCalls) == 0 {
			reply.Text = resp.Content
			l.remember(message{Role: "user", Content: text}, message{Role: "assistant", Content: resp.Content})
			return reply, nil
		}
		for _, call := range resp.ToolCalls {
			name := call.Function.Name
			reply.ToolCalls = append(reply.ToolCalls, name)
			out := l.runTool(ctx, name, call.Function.Arguments)
			lg.Debug("Tool call",
				zap.String("tool", name),
				zap.Int("iteration", i),
			)
			msgs = append(msgs, message{Role: "tool", ToolName: name, Content: out})
		}
	}

	lg.Warn("Tool call limit reached", zap.Int("max_iterations", l.cfg.MaxIterations))
	reply.Text = fmt.Sprintf("Stopped after %d tool rounds without a final answer. Please rephrase the request.",
		l.cfg.MaxIterations)
	l.remember(message{Role: "user", Content: text}, message{Role: "assistant", Content: reply.Text})
	return reply, nil
}

func (l *LLM) remember(msgs ...message) {
	l.history = append(l.history, msgs...)
	if n := len(l.history) - historyLimit; n > 0 {
		l.history = append([]message(nil), l.history[n:]...)
	}
}

// runTool executes a tool call and encodes the outcome for the model.
func (l *LLM) runTool(ctx context.Context, name string, args json.RawMessage) string {
	op := operationByTool(name)
	if op == OpUnknown {
		return toolError(errors.Errorf("unknown tool %q", name))
	}
	task, err := decodeArguments(op, args)
	if err != nil {
		return toolError(err)
	}
	res, err := l.exec.Execute(ctx, task)
	if err != nil {
		zctx.From(ctx).Info("Tool failed", zap.String("tool", name), zap.Error(err))
		return toolError(err)
	}
	data, err := json.Marshal(res.Data)
	if err != nil {
		return toolError(errors.Wrap(err, "encode result"))
	}

	var w jx.Encoder
	w.Obj(func(w *jx.Encoder) {
		w.Field("success", func(w *jx.Encoder) { w.Bool(true) })
		w.Field("message", func(w *jx.Encoder) { w.Str(res.Message) })
		if res.Data != nil {
			w.Field("data", func(w *jx.Encoder) { w.Raw(data) })
		}
	})
	return w.String()
}

func toolError(err error) string {
	var w jx.Encoder
	w.Obj(func(w *jx.Encoder) {
		w.Field("success", func(w *jx.Encoder) { w.Bool(false) })
		w.Field("error", func(w *jx.Encoder) { w.Str(err.Error()) })
	})
	return w.String()
}

func (l *LLM) send(ctx context.Context, msgs []message) (message, error) {
	body, err := json.Marshal(chatRequest{
		Model:    l.cfg.Model,
		Messages: msgs,
		Tools:    tools(),
	})
	if err != nil {
		return message{}, errors.Wrap(err, "encode chat request")
	}

	url := strings.TrimRight(l.cfg.URL, "/") + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return message{}, errors.Wrap(err, "create chat request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return message{}, &UnavailableError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return message{}, &UnavailableError{Err: errors.Wrap(err, "read chat response")}
	}
	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil && resp.StatusCode == http.StatusOK {
		return message{}, &UnavailableError{Err: errors.Wrap(err, "decode chat response")}
	}
	if resp.StatusCode != http.StatusOK {
		msg := out.Error
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return message{}, &UnavailableError{Err: errors.Errorf("status %d: %s", resp.StatusCode, msg)}
	}
	return out.Message, nil
}
