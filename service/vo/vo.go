package vo

import "github.com/foomo/layoutinfer/collection"

type Markdown string

type MimeType string

type ContentSummary struct {
	Title       string   `json:"title"`              // Page title
	Description string   `json:"description"`        // Meta description
	Keywords    []string `json:"keywords,omitempty"` // Meta keywords
}

type PageSummary struct {
	URL            string   `json:"url"`
	Pathname       string   `json:"pathname"`
	ID             string   `json:"id,omitempty"`       // Contentserver node ID
	MimeType       MimeType `json:"mimeType,omitempty"` // Contentserver mime type
	ContentSummary `json:"contentSummary"`
}

// Site is the layout inferred over a contentserver node and its children.
type Site struct {
	Root     PageSummary        `json:"root"`
	Pages    []PageSummary      `json:"pages"`
	Template string             `json:"template,omitempty"` // Hugo base template
	Result   *collection.Result `json:"result"`
}
