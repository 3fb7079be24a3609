package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/serranog/altair/internal/llm"
	"github.com/serranog/altair/internal/tools"
	"github.com/serranog/altair/internal/trace"
)

const defaultSystemPrompt = "You are a helpful assistant for an airline called FlightAI. " +
	"Give short, courteous answers, no more than one sentence. " +
	"Always be accurate. If you don't know the answer, say so."

const (
	// DefaultMaxToolRounds matches the single tool round-trip the assistant
	// normally needs: one dispatch, then a final answer.
	DefaultMaxToolRounds = 1

	// HardMaxToolRounds bounds tool-call ping-pong no matter what the
	// configuration says.
	HardMaxToolRounds = 5
)

// degradedReply is returned when the model keeps requesting tools past the
// round limit instead of producing an answer.
const degradedReply = "I wasn't able to finish answering that. Please try again or rephrase your question."

// ErrEmptyMessage is returned when Advance is called with a blank utterance.
var ErrEmptyMessage = errors.New("empty user message")

// Agent advances a conversation one exchange at a time: it takes a user
// utterance, runs the tool-dispatch loop against the model endpoint, and
// commits the user turn and the final reply to the conversation.
type Agent struct {
	llm           llm.Client
	registry      *tools.Registry
	convo         *Conversation
	toolDefs      []llm.ToolDef
	maxToolRounds int

	OnToolCall   func(name string, args string)
	OnToolResult func(name string, result string)
	OnTextDelta  func(delta string)
}

// New creates an Agent with the given endpoint client, tool registry, and
// conversation. A nil conversation gets the default FlightAI prompt.
func New(client llm.Client, registry *tools.Registry, convo *Conversation) *Agent {
	if convo == nil {
		convo = NewConversation(defaultSystemPrompt)
	}
	a := &Agent{
		llm:           client,
		registry:      registry,
		convo:         convo,
		maxToolRounds: DefaultMaxToolRounds,
	}
	if registry != nil {
		a.toolDefs = registry.Defs()
	}
	return a
}

// SetMaxToolRounds configures how many tool-dispatch rounds one exchange may
// run before the turn degrades. Clamped to [1, HardMaxToolRounds].
func (a *Agent) SetMaxToolRounds(n int) {
	if n < 1 {
		n = 1
	}
	if n > HardMaxToolRounds {
		n = HardMaxToolRounds
	}
	a.maxToolRounds = n
}

// FilterTools restricts the tools offered to the model to the given names.
func (a *Agent) FilterTools(names []string) {
	if len(names) == 0 {
		return
	}
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}
	var filtered []llm.ToolDef
	for _, t := range a.toolDefs {
		if allowed[t.Name] {
			filtered = append(filtered, t)
		}
	}
	a.toolDefs = filtered
}

// Conversation returns the agent's conversation for persistence or display.
func (a *Agent) Conversation() *Conversation {
	return a.convo
}

// Advance runs one full exchange: the user message goes out with the tool
// schemas, any requested tools are dispatched, and the model's final text
// comes back as the reply. On success exactly one user turn and one
// assistant turn are appended to the conversation; on endpoint failure the
// conversation is left untouched.
func (a *Agent) Advance(ctx context.Context, userMessage string) (string, error) {
	return a.advance(ctx, userMessage, nil)
}

// AdvanceStream is Advance with text deltas streamed through OnTextDelta.
// The control flow is identical: decisions depend only on the accumulated
// response, never on partial tokens.
func (a *Agent) AdvanceStream(ctx context.Context, userMessage string) (string, error) {
	return a.advance(ctx, userMessage, a.OnTextDelta)
}

func (a *Agent) advance(ctx context.Context, userMessage string, stream llm.StreamHandler) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", ErrEmptyMessage
	}

	ctx, span := trace.Tracer().Start(ctx, "agent.advance",
		oteltrace.WithAttributes(
			attribute.String("user.message", clip(userMessage, 200)),
			attribute.Int("conversation.turns", a.convo.Len()),
		),
	)
	defer span.End()

	// Working copy: system + visible history + the new user turn. Tool
	// traffic is appended here and never reaches the visible conversation.
	working := append(a.convo.payload(), llm.UserMessage(userMessage))

	resp, err := a.complete(ctx, working, a.toolDefs, stream, 0)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	rounds := 0
	for resp.FinishReason == llm.FinishToolCalls {
		if rounds >= a.maxToolRounds {
			// The model wants yet another round after what should have been
			// its final answer. Degrade to a textual reply rather than loop.
			slog.Warn("tool round limit reached, degrading reply",
				"rounds", rounds, "pending_calls", len(resp.Message.ToolCalls))
			span.SetAttributes(attribute.Bool("reply.degraded", true))
			a.convo.commit(userMessage, degradedReply)
			return degradedReply, nil
		}
		rounds++

		// The assistant's tool-call message goes in verbatim, then one tool
		// turn per result, in request order.
		working = append(working, resp.Message)
		working = append(working, a.dispatch(ctx, resp.Message.ToolCalls)...)

		// Schemas are offered again only while another round is allowed.
		var defs []llm.ToolDef
		if rounds < a.maxToolRounds {
			defs = a.toolDefs
		}

		resp, err = a.complete(ctx, working, defs, stream, rounds)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
	}

	reply := resp.Message.Content
	span.SetAttributes(attribute.Int("tool.rounds", rounds))
	a.convo.commit(userMessage, reply)
	return reply, nil
}

// complete issues one endpoint request, traced.
func (a *Agent) complete(ctx context.Context, messages []llm.Message, defs []llm.ToolDef, stream llm.StreamHandler, round int) (*llm.Response, error) {
	ctx, span := trace.Tracer().Start(ctx, "llm.complete",
		oteltrace.WithAttributes(
			attribute.Int("llm.round", round),
			attribute.Int("llm.messages", len(messages)),
			attribute.Int("llm.tools", len(defs)),
		),
	)
	defer span.End()

	var resp *llm.Response
	var err error
	if stream != nil {
		resp, err = a.llm.ChatCompletionStream(ctx, messages, defs, stream)
	} else {
		resp, err = a.llm.ChatCompletion(ctx, messages, defs)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("endpoint request (round %d): %w", round, err)
	}

	span.SetAttributes(attribute.String("llm.finish_reason", string(resp.FinishReason)))
	return resp, nil
}

// dispatch runs every requested tool call. Calls are independent (distinct
// ids), so they execute in parallel, but all of them complete before the
// results are handed back, and the result order matches the request order.
// Failures of any kind become error-shaped results; nothing propagates.
func (a *Agent) dispatch(ctx context.Context, calls []llm.ToolCall) []llm.Message {
	for _, call := range calls {
		if a.OnToolCall != nil {
			a.OnToolCall(call.Name, call.Arguments)
		}
	}

	results := make([]llm.Message, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			out, err := a.registry.Call(ctx, call.Name, call.Arguments)
			if err != nil {
				slog.Warn("tool call failed", "tool", call.Name, "call_id", call.ID, "error", err)
				out = errorPayload(err)
			}
			results[i] = llm.ToolResultMessage(call.ID, out)
		}(i, call)
	}
	wg.Wait()

	for i, call := range calls {
		if a.OnToolResult != nil {
			a.OnToolResult(call.Name, results[i].Content)
		}
	}
	return results
}

// errorPayload shapes a tool failure as a JSON result the model can read
// and explain to the user.
func errorPayload(err error) string {
	if errors.Is(err, tools.ErrUnknownTool) {
		return `{"error": "tool not recognized"}`
	}
	out, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		return `{"error": "tool failed"}`
	}
	return string(out)
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
