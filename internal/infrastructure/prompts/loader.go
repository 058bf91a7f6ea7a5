package prompts

import (
	_ "embed"
)

//go:embed token_proposer.txt
var TokenProposerPrompt string
