package ast

import "encoding/json"

type jsonNode struct {
	Type      string      `json:"type"`
	Value     string      `json:"value,omitempty"`
	Name      string      `json:"name,omitempty"`
	Attrs     []Attribute `json:"attrs,omitempty"`
	Children  []Node      `json:"children,omitempty"`
	Reference Reference   `json:"reference,omitempty"`
	Template  Node        `json:"template,omitempty"`
}

type jsonAttr struct {
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Value     string    `json:"value,omitempty"`
	Reference Reference `json:"reference,omitempty"`
}

func (n Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{Type: "text", Value: n.Value})
}

func (n Doctype) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{Type: "doctype", Value: n.Value})
}

func (n Comment) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{Type: "comment", Value: n.Value})
}

func (n CData) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{Type: "cdata", Value: n.Value})
}

func (n Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{Type: "element", Name: n.Name, Attrs: n.Attrs, Children: n.Children})
}

func (n Variable) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{Type: "variable", Reference: n.Reference})
}

func (n MarkdownVariable) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{Type: "markdown", Reference: n.Reference})
}

func (n InlineMarkdownVariable) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{Type: "inline_markdown", Reference: n.Reference})
}

func (n Conditional) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{Type: "conditional", Reference: n.Reference, Template: n.Template})
}

func (n Loop) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{Type: "loop", Reference: n.Reference, Template: n.Template})
}

func (n Content) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{Type: "content"})
}

func (a StaticAttribute) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonAttr{Type: "static", Name: a.Name, Value: a.Value})
}

func (a VariableAttribute) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonAttr{Type: "variable", Name: a.Name, Reference: a.Reference})
}

func (a ConditionalAttribute) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonAttr{Type: "conditional", Name: a.Name, Reference: a.Reference})
}
