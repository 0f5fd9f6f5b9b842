package advisory

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// markdown renders model output without passing through raw HTML.
var markdown = goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))

// RenderHTML converts advice Markdown into an HTML fragment.
func RenderHTML(advice string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(advice), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
