// Command debaterag runs a multi-agent debate over user documents.
//
// Usage:
//
//	debaterag serve --config config.yaml
//	debaterag ask "What is the capital of France?" docs/paris.txt docs/lyon.txt
package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/debaterag/pkg/config"
	"github.com/kadirpekel/debaterag/pkg/debate"
	"github.com/kadirpekel/debaterag/pkg/embedders"
	"github.com/kadirpekel/debaterag/pkg/llms"
	"github.com/kadirpekel/debaterag/pkg/logger"
	"github.com/kadirpekel/debaterag/pkg/rag"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve   ServeCmd   `cmd:"" help:"Start the debate HTTP server."`
	Ask     AskCmd     `cmd:"" help:"Run a debate from the command line."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("debaterag version %s\n", version)
	return nil
}

func initLogging(cli *CLI) (func(), error) {
	output := os.Stderr
	cleanup := func() {}

	if cli.LogFile != "" {
		file, closeFile, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		cleanup = closeFile
	}

	logger.Init(logger.ParseLevel(cli.LogLevel), output, cli.LogFormat)
	return cleanup, nil
}

// buildEngine wires the completion provider, embedder and per-request
// retriever factory into a debate engine.
func buildEngine(cfg *config.Config) (*debate.Engine, error) {
	llm, err := llms.NewProvider(&cfg.LLM)
	if err != nil {
		return nil, err
	}

	embedder, err := embedders.NewOpenAIEmbedder(&cfg.Embedder)
	if err != nil {
		return nil, err
	}

	retrievers := func(ctx context.Context) (rag.Retriever, error) {
		return rag.NewChromemRetriever(embedder)
	}

	return debate.New(cfg.Debate, llm, retrievers)
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("debaterag"),
		kong.Description("Multi-agent debate over retrieved document chunks."),
		kong.UsageOnError(),
	)

	cleanup, err := initLogging(cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()

	if err := ctx.Run(cli); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
