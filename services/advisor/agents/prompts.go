// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"embed"
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

//go:embed prompts/*.md
var promptFS embed.FS

// loadPrompt reads one embedded template. Templates use Go template syntax
// ({{.var}}) so they render through langchaingo's default format.
func loadPrompt(name string, inputVars []string) (prompts.PromptTemplate, error) {
	data, err := promptFS.ReadFile("prompts/" + name + ".md")
	if err != nil {
		return prompts.PromptTemplate{}, fmt.Errorf("failed to load prompt %s: %w", name, err)
	}
	tpl := prompts.NewPromptTemplate(string(data), inputVars)
	tpl.TemplateFormat = prompts.TemplateFormatGoTemplate
	return tpl, nil
}
