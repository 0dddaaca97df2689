package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kadirpekel/debaterag/pkg/config"
	"github.com/kadirpekel/debaterag/pkg/debate"
)

// AskCmd runs the batched pipeline once and prints the transcript.
type AskCmd struct {
	Query string   `arg:"" help:"Question to debate."`
	Files []string `arg:"" optional:"" help:"Document files (reads stdin when omitted)." type:"existingfile"`

	Model  string `help:"Model identifier (overrides config)."`
	TopK   int    `help:"Number of chunks to retrieve (1-20)."`
	Rounds int    `help:"Number of debate rounds (1-4)."`
	Quiet  bool   `short:"q" help:"Print only the final answer."`
}

func (c *AskCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	documents, err := c.readDocuments()
	if err != nil {
		return err
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	result, err := engine.Run(context.Background(), documents, c.Query, debate.Options{
		Model:  c.Model,
		TopK:   c.TopK,
		Rounds: c.Rounds,
	})
	if err != nil {
		return err
	}

	if !c.Quiet {
		for _, step := range result.Steps {
			fmt.Printf("[%s] %s: %s\n\n", step.Stage, step.Speaker, step.Message)
		}
		fmt.Printf("=== Final Answer (%d documents, %d chunks, %.3fs embedding) ===\n",
			result.Stats.Documents, result.Stats.Chunks, result.Stats.EmbeddingSeconds)
	}
	fmt.Println(result.FinalAnswer)

	return nil
}

func (c *AskCmd) readDocuments() ([]string, error) {
	if len(c.Files) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return []string{string(data)}, nil
	}

	documents := make([]string, 0, len(c.Files))
	for _, path := range c.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		documents = append(documents, string(data))
	}
	return documents, nil
}
