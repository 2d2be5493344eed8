package openai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Model is the chat model used for digests and explanations.
const Model = "gpt-4o-mini"

// Client writes short natural-language text about headlines and metrics.
type Client struct {
	cli oa.Client
}

func New(apiKey string) *Client {
	return &Client{cli: oa.NewClient(option.WithAPIKey(apiKey))}
}

// Digest summarizes the current headlines into a few bullets.
func (c *Client) Digest(ctx context.Context, headlines []string) (string, error) {
	lines := sanitize(headlines)
	if len(lines) == 0 {
		return "No headlines to summarize.", nil
	}
	var b strings.Builder
	for i, l := range lines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, l)
	}
	return c.complete(ctx,
		"You summarize crypto market headlines. Reply with at most 5 short bullets, then one line starting with 'Mood:' giving the overall tone. No links, no investment advice.",
		"Headlines:\n"+b.String(), 600)
}

func (c *Client) complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: Model,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(system),
			oa.UserMessage(user),
		},
		MaxTokens: oa.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai completion: no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var (
	reMarkdownImg = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	reURL         = regexp.MustCompile(`https?://\S+`)
)

const maxLineLen = 300

// sanitize strips links and images and caps each line.
func sanitize(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, m := range lines {
		text := reMarkdownImg.ReplaceAllString(m, "")
		text = reURL.ReplaceAllString(text, "")
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			continue
		}
		if r := []rune(text); len(r) > maxLineLen {
			text = string(r[:maxLineLen])
		}
		out = append(out, text)
	}
	return out
}
