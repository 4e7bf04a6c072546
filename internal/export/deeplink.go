package export

import (
	"errors"
	"net/url"
	"strings"

	"promptcraft/internal/model"
)

var ErrUnknownTarget = errors.New("unknown export target")

// Target is an external chat service the final prompt can be opened in.
type Target struct {
	ID      string
	Name    string
	BaseURL string
	// PromptParam is the query parameter that prefills the prompt. Empty
	// means the service cannot be prefilled and the user pastes instead.
	PromptParam string
	// Query is sent as-is ahead of the prompt parameter.
	Query url.Values
}

var targets = []Target{
	{
		ID:          "chatgpt",
		Name:        "ChatGPT",
		BaseURL:     "https://chat.openai.com/",
		PromptParam: "prompt",
		Query:       url.Values{"model": {"gpt-4"}},
	},
	{ID: "claude", Name: "Claude", BaseURL: "https://claude.ai"},
	{ID: "gemini", Name: "Gemini", BaseURL: "https://gemini.google.com"},
}

// Targets returns the known targets in display order.
func Targets() []Target {
	out := make([]Target, len(targets))
	copy(out, targets)
	return out
}

// BuildDeepLink returns the URL that opens text in the target service.
func BuildDeepLink(targetID, text string) (string, error) {
	for _, t := range targets {
		if t.ID == targetID {
			return t.link(text), nil
		}
	}
	return "", ErrUnknownTarget
}

// Links builds a link for every target.
func Links(text string) []model.ExportLink {
	out := make([]model.ExportLink, 0, len(targets))
	for _, t := range targets {
		out = append(out, model.ExportLink{
			Target:    t.ID,
			Name:      t.Name,
			URL:       t.link(text),
			Prefilled: t.PromptParam != "",
		})
	}
	return out
}

func (t Target) link(text string) string {
	if t.PromptParam == "" {
		return t.BaseURL
	}
	raw := t.BaseURL + "?"
	if len(t.Query) > 0 {
		raw += t.Query.Encode() + "&"
	}
	return raw + t.PromptParam + "=" + encodeQueryComponent(text)
}

// encodeQueryComponent percent-encodes s with spaces as %20 rather than +.
func encodeQueryComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
