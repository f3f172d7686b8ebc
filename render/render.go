// Package render turns chat text into the HTML fragments shown in the
// message view.
package render

import (
	"html"
	"html/template"
	"regexp"
	"strings"
)

var (
	currency = regexp.MustCompile(`IDR\s*([\d,]+(?:,\d{3})*(?:\.\d{2})?)`)
	bold     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italic   = regexp.MustCompile(`\*(.*?)\*`)
)

// Format applies the substitutions in fixed order: currency amounts, bold,
// italic, line breaks. The input must already be escaped.
func Format(text string) string {
	text = currency.ReplaceAllString(text, "<strong>IDR $1</strong>")
	text = bold.ReplaceAllString(text, "<strong>$1</strong>")
	text = italic.ReplaceAllString(text, "<em>$1</em>")
	return strings.ReplaceAll(text, "\n", "<br>")
}

// Message escapes untrusted text and formats it.
func Message(text string) template.HTML {
	return template.HTML(Format(html.EscapeString(text)))
}

var noticeTemplate = template.Must(template.New("notice").Parse(
	`<div class="api-key-notice"><div class="notice-icon">🔑</div><p>{{.}}</p>` +
		`<p><a href="https://platform.openai.com/api-keys" target="_blank">OpenAI API Key</a> · ` +
		`<a href="https://www.perplexity.ai/settings/api" target="_blank">Perplexity API Key</a></p></div>`))

// Notice renders the missing-credentials banner.
func Notice(text string) template.HTML {
	var b strings.Builder
	if err := noticeTemplate.Execute(&b, text); err != nil {
		return template.HTML(html.EscapeString(text))
	}
	return template.HTML(b.String())
}
