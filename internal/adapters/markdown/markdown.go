// Package markdown renders user-authored Markdown (announcements, event
// descriptions) to HTML for email bodies and API responses.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// renderer escapes raw HTML in the input (WithUnsafe is NOT set).
var renderer = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Render converts Markdown to HTML.
func Render(md string) (string, error) {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderOrEscape converts Markdown to HTML and falls back to the escaped
// source when conversion fails.
func RenderOrEscape(md string) string {
	out, err := Render(md)
	if err != nil {
		return template.HTMLEscapeString(md)
	}
	return out
}
