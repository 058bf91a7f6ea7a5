package output

import "context"

// UserInteractionPort asks the person at the keyboard. Answers stay on
// this machine.
type UserInteractionPort interface {
	AskQuestion(ctx context.Context, question string) (string, error)
}
