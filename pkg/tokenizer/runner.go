package tokenizer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner sends one sentence to an analyzer and returns its raw output.
type Runner interface {
	Run(ctx context.Context, input string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, input string) ([]byte, error)

func (f RunnerFunc) Run(ctx context.Context, input string) ([]byte, error) { return f(ctx, input) }

// ExecRunner starts the analyzer binary once per call, writes the input to
// its stdin and collects stdout.
type ExecRunner struct {
	Path string
	Args []string
}

func (r *ExecRunner) Run(ctx context.Context, input string) ([]byte, error) {
	if !strings.HasSuffix(input, "\n") {
		input += "\n"
	}
	cmd := exec.CommandContext(ctx, r.Path, r.Args...)
	cmd.Stdin = strings.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("run %s: %w: %s", r.Path, err, msg)
		}
		return nil, fmt.Errorf("run %s: %w", r.Path, err)
	}
	return stdout.Bytes(), nil
}
