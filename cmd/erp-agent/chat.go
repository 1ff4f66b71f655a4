package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/erp-inventory/internal/agent"
)

var (
	chatRemote        bool
	chatOllamaURL     string
	chatModel         string
	chatMaxIterations int
)

// chatter is either a local model loop or the server's chat endpoint.
type chatter interface {
	Chat(ctx context.Context, text string) (agent.Reply, error)
	Reset(ctx context.Context) error
}

type localChat struct{ llm *agent.LLM }

func (c localChat) Chat(ctx context.Context, text string) (agent.Reply, error) {
	return c.llm.Chat(ctx, text)
}

func (c localChat) Reset(context.Context) error {
	c.llm.Reset()
	return nil
}

type remoteChat struct{}

func (remoteChat) Chat(ctx context.Context, text string) (agent.Reply, error) {
	resp, err := newClient().Chat(ctx, text)
	if err != nil {
		return agent.Reply{}, err
	}
	return agent.Reply{Text: resp.Reply, ToolCalls: resp.ToolCalls}, nil
}

func (remoteChat) Reset(ctx context.Context) error {
	return newClient().ResetChat(ctx)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the inventory assistant",
	Long: `chat starts an interactive conversation. Type "reset" to forget the
conversation and "exit" to quit.

By default the model runs through a local Ollama server and operates on the
ERP API with your key. With --remote the conversation is held by the API
server instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var c chatter = remoteChat{}
		if !chatRemote {
			c = localChat{llm: agent.NewLLM(agent.LLMConfig{
				URL:           chatOllamaURL,
				Model:         chatModel,
				MaxIterations: chatMaxIterations,
			}, newExecutor(), noop.NewTracerProvider())}
		}
		return chatLoop(cmd.Context(), c, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func chatLoop(ctx context.Context, c chatter, in io.Reader, out io.Writer) error {
	_, _ = fmt.Fprintln(out, mutedStyle.Render(`Type "reset" to start over, "exit" to quit.`))
	sc := bufio.NewScanner(in)
	for {
		_, _ = fmt.Fprint(out, titleStyle.Render("> "))
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "reset":
			if err := c.Reset(ctx); err != nil {
				printError(out, err)
				continue
			}
			printSuccess(out, "Conversation cleared")
			continue
		}

		reply, err := c.Chat(ctx, line)
		if err != nil {
			printError(out, err)
			continue
		}
		if len(reply.ToolCalls) > 0 {
			_, _ = fmt.Fprintln(out, mutedStyle.Render("tools: "+strings.Join(reply.ToolCalls, ", ")))
		}
		_, _ = fmt.Fprintln(out, reply.Text)
	}
}

func init() {
	chatCmd.Flags().BoolVar(&chatRemote, "remote", false, "use the server's chat endpoint")
	chatCmd.Flags().StringVar(&chatOllamaURL, "ollama-url", envOr("ERP_AGENT_OLLAMA_URL", "http://localhost:11434"), "Ollama base URL")
	chatCmd.Flags().StringVar(&chatModel, "model", envOr("ERP_AGENT_MODEL", "qwen2.5"), "model name")
	chatCmd.Flags().IntVar(&chatMaxIterations, "max-iterations", 5, "tool rounds per message")
	rootCmd.AddCommand(chatCmd)
}
