package markdown

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/foomo/layoutinfer/ast"
	"github.com/foomo/layoutinfer/htmlast"
)

// Converter turns rendered markup into markdown text.
type Converter interface {
	Convert(markup string) (string, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(markup string) (string, error)

func (f ConverterFunc) Convert(markup string) (string, error) {
	return f(markup)
}

// HTMLConverter converts with html-to-markdown.
type HTMLConverter struct{}

func (HTMLConverter) Convert(markup string) (string, error) {
	md, err := htmltomarkdown.ConvertString(markup)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return md, nil
}

// ToMarkdown renders nodes and converts the markup with conv.
func ToMarkdown(conv Converter, nodes []ast.Node) (string, error) {
	if conv == nil {
		conv = HTMLConverter{}
	}
	markup, err := htmlast.Render(nodes)
	if err != nil {
		return "", err
	}
	md, err := conv.Convert(markup)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}
