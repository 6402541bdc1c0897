// Package security sanitizes agent-supplied market content before it is
// stored or rendered.
package security

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// SecurityService strips markup from plain-text fields and renders market
// descriptions from markdown to sanitized HTML.
type SecurityService struct {
	strict *bluemonday.Policy
	ugc    *bluemonday.Policy
	md     goldmark.Markdown
}

func NewSecurityService() *SecurityService {
	return &SecurityService{
		strict: bluemonday.StrictPolicy(),
		ugc:    bluemonday.UGCPolicy(),
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// PlainText strips all markup from a single-line field such as a title,
// category, or outcome label.
func (s *SecurityService) PlainText(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(in)))
}

// MarketInput is the agent-supplied content of a new market.
type MarketInput struct {
	Title       string
	Description string
	Category    string
	Outcomes    []string
}

// SanitizeMarketInput cleans every free-text field of a market submission.
// Descriptions keep their raw markdown; it is sanitized at render time.
func (s *SecurityService) SanitizeMarketInput(in MarketInput) MarketInput {
	out := MarketInput{
		Title:       s.PlainText(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    s.PlainText(in.Category),
	}
	out.Outcomes = make([]string, len(in.Outcomes))
	for i, label := range in.Outcomes {
		out.Outcomes[i] = s.PlainText(label)
	}
	return out
}

// RenderDescription converts a market description from markdown to HTML and
// strips anything the UGC policy does not allow.
func (s *SecurityService) RenderDescription(description string) string {
	if description == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(description), &buf); err != nil {
		return html.EscapeString(description)
	}
	return s.ugc.Sanitize(buf.String())
}
