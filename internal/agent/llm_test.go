package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// fakeModel replays scripted responses and records the requests.
type fakeModel struct {
	mu        sync.Mutex
	responses []string
	requests  []chatRequest
}

func (m *fakeModel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	resp := `{"message":{"role":"assistant","content":"done"}}`
	if len(m.responses) > 0 {
		resp, m.responses = m.responses[0], m.responses[1:]
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(resp))
}

func toolResponse(name, args string) string {
	return `{"message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"` + name +
		`","arguments":` + args + `}}]}}`
}

func newTestLLM(t *testing.T, model http.Handler, maxIterations int) (*LLM, *Local) {
	t.Helper()
	srv := httptest.NewServer(model)
	t.Cleanup(srv.Close)
	local := newLocal(t)
	llm := NewLLM(LLMConfig{URL: srv.URL, Model: "test", MaxIterations: maxIterations},
		NewExecutor(local), tracenoop.NewTracerProvider())
	return llm, local
}

func TestLLMToolLoop(t *testing.T) {
	model := &fakeModel{responses: []string{
		toolResponse("get_products", `{"low_stock_only": false}`),
		toolResponse("create_order", `{"customer_name": "Acme", "items": [{"product_id": 3, "quantity": "4"}]}`),
		`{"message":{"role":"assistant","content":"Order created."}}`,
	}}
	llm, local := newTestLLM(t, model, 5)

	reply, err := llm.Chat(context.Background(), "Order 4 monitors for Acme")
	require.NoError(t, err)
	assert.Equal(t, "Order created.", reply.Text)
	assert.Equal(t, []string{"get_products", "create_order"}, reply.ToolCalls)
	assert.Equal(t, 96, productByName(t, local, "Monitor").StockQuantity)

	require.Len(t, model.requests, 3)
	first := model.requests[0]
	assert.Equal(t, "test", first.Model)
	assert.False(t, first.Stream)
	assert.Len(t, first.Tools, len(Operations))
	require.Len(t, first.Messages, 2)
	assert.Equal(t, "system", first.Messages[0].Role)
	assert.Equal(t, "user", first.Messages[1].Role)

	last := model.requests[2].Messages
	tool := last[len(last)-1]
	assert.Equal(t, "tool", tool.Role)
	assert.Equal(t, "create_order", tool.ToolName)
	assert.Contains(t, tool.Content, `"success":true`)
	assert.Contains(t, tool.Content, `"customer_name":"Acme"`)
}

func TestLLMToolErrorIsReported(t *testing.T) {
	model := &fakeModel{responses: []string{
		toolResponse("create_order", `{"customer_name": "Acme", "items": [{"product_id": 999, "quantity": 1}]}`),
		toolResponse("no_such_tool", `{}`),
		`{"message":{"role":"assistant","content":"That product does not exist."}}`,
	}}
	llm, _ := newTestLLM(t, model, 5)

	reply, err := llm.Chat(context.Background(), "order product 999")
	require.NoError(t, err)
	assert.Equal(t, "That product does not exist.", reply.Text)

	require.Len(t, model.requests, 3)
	msgs := model.requests[1].Messages
	assert.Contains(t, msgs[len(msgs)-1].Content, `"success":false`)
	assert.Contains(t, msgs[len(msgs)-1].Content, "999")
	msgs = model.requests[2].Messages
	assert.Contains(t, msgs[len(msgs)-1].Content, "unknown tool")
}

func TestLLMIterationLimit(t *testing.T) {
	model := &fakeModel{}
	for i := 0; i < 10; i++ {
		model.responses = append(model.responses, toolResponse("get_stock_alerts", `{}`))
	}
	llm, _ := newTestLLM(t, model, 3)

	reply, err := llm.Chat(context.Background(), "loop forever")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Stopped after 3")
	assert.Len(t, reply.ToolCalls, 3)
	assert.Len(t, model.requests, 3)
}

func TestLLMHistoryAndReset(t *testing.T) {
	model := &fakeModel{}
	llm, _ := newTestLLM(t, model, 5)
	ctx := context.Background()

	_, err := llm.Chat(ctx, "hello")
	require.NoError(t, err)
	_, err = llm.Chat(ctx, "again")
	require.NoError(t, err)
	// system, hello, done, again
	assert.Len(t, model.requests[1].Messages, 4)

	llm.Reset()
	_, err = llm.Chat(ctx, "fresh")
	require.NoError(t, err)
	assert.Len(t, model.requests[2].Messages, 2)
}

func TestLLMUnavailable(t *testing.T) {
	t.Run("Status", func(t *testing.T) {
		model := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model \"test\" not found"}`))
		})
		llm, _ := newTestLLM(t, model, 5)

		_, err := llm.Chat(context.Background(), "hi")
		var unavailable *UnavailableError
		require.True(t, errors.As(err, &unavailable), "%v", err)
		assert.Contains(t, err.Error(), "not found")
	})
	t.Run("Transport", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		llm := NewLLM(LLMConfig{URL: srv.URL, Timeout: time.Second}, NewExecutor(newLocal(t)),
			tracenoop.NewTracerProvider())

		_, err := llm.Chat(context.Background(), "hi")
		var unavailable *UnavailableError
		require.True(t, errors.As(err, &unavailable), "%v", err)
	})
}

func TestDecodeArguments(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		raw  string
		want Task
	}{
		{"Empty", OpSalesReport, ``, Task{Op: OpSalesReport}},
		{"Null", OpSalesReport, `null`, Task{Op: OpSalesReport}},
		{"Object", OpRestock, `{"product_id": 2, "quantity": 30}`, Task{Op: OpRestock, ProductID: 2, Quantity: 30}},
		{"Quoted", OpRestock, `{"product_id": "2", "quantity": 30.0}`, Task{Op: OpRestock, ProductID: 2, Quantity: 30}},
		{"String", OpSetOrderStatus, `"{\"order_id\": 5, \"status\": \"completed\"}"`,
			Task{Op: OpSetOrderStatus, OrderID: 5, Status: "completed"}},
		{"Bool", OpListProducts, `{"low_stock_only": "true", "extra": [1, 2]}`, Task{Op: OpListProducts, LowStockOnly: true}},
		{"Items", OpCreateOrder, `{"customer_name": "A", "items": [{"product_id": 1, "quantity": 2, "note": "x"}]}`,
			Task{Op: OpCreateOrder, CustomerName: "A", Items: []Item{{ProductID: 1, Quantity: 2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeArguments(tt.op, []byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := decodeArguments(OpRestock, []byte(`{"quantity": true}`))
	require.Error(t, err)
}

func TestToolsCoverOperations(t *testing.T) {
	seen := map[string]bool{}
	for _, op := range Operations {
		name := toolFor(op).Function.Name
		require.NotEmpty(t, name, op.String())
		assert.False(t, seen[name], name)
		seen[name] = true
		assert.Equal(t, op, operationByTool(name))
	}
	assert.Equal(t, OpUnknown, operationByTool("drop_tables"))
}
