package prompts

import (
	"bytes"
	"fmt"
	"text/template"

	"formbridge/internal/domain/privacy"
)

type TokenPromptData struct {
	Function string
	Tokens   []privacy.Token
}

// GenerateTokenProposerPrompt renders baseTemplate with the closed token
// set in stable order.
func GenerateTokenProposerPrompt(baseTemplate, function string) (string, error) {
	tmpl, err := template.New("token_proposer").Parse(baseTemplate)
	if err != nil {
		return "", fmt.Errorf("parse prompt: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, TokenPromptData{Function: function, Tokens: privacy.Tokens()}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
