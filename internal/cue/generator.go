// Package cue generates teaching cues for pose variations with Gemini.
// Used by the cuegen operator tool, never by the request path.
package cue

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

const promptTmpl = `You are an experienced yoga teacher. Write one concise verbal cue
(one or two sentences, no more than 40 words) for guiding a student into
the pose "%s"%s. Mention alignment and breath. Respond with the cue text
only, no preamble and no quotation marks.`

// Generator asks Gemini for teaching cue text.
type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(ctx context.Context, apiKey, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Generator{client: client, model: model}, nil
}

// Generate returns a cue for a pose variation. variation may be empty
// for a pose's base form.
func (g *Generator) Generate(ctx context.Context, poseName, variation string) (string, error) {
	qualifier := ""
	if variation != "" {
		qualifier = fmt.Sprintf(" (variation: %s)", variation)
	}
	prompt := fmt.Sprintf(promptTmpl, poseName, qualifier)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate cue for %q: %w", poseName, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("generate cue for %q: empty response", poseName)
	}
	return strings.Trim(text, `"`), nil
}
