package userinteraction

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"formbridge/internal/application/port/output"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

type ConsoleUserInteraction struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return New(os.Stdin, os.Stderr)
}

func New(in io.Reader, out io.Writer) *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// AskQuestion returns the trimmed answer; an empty line means no answer.
func (u *ConsoleUserInteraction) AskQuestion(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(u.out, "\n[USER INPUT REQUIRED] ")
	fmt.Fprintf(u.out, "%s\n> ", question)

	answer, err := u.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && answer != "") {
		return "", fmt.Errorf("failed to read user input: %w", err)
	}

	return strings.TrimSpace(answer), nil
}
