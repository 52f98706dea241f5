package ast

import (
	"slices"
	"strings"
)

var metaIdentity = []string{"name", "property", "http-equiv", "charset"}

// Signature derives the identity of an element used for equivalence and
// naming.
//
//	<meta name="description">       -> meta_description
//	<link rel="stylesheet">         -> link_stylesheet
//	<section id="intro">            -> intro
//	<li class="badge badge-green">  -> li_badge_badge-green
//	<div>                           -> div
func Signature(e Element) string {
	switch e.Name {
	case "meta":
		for _, name := range metaIdentity {
			if v, ok := e.StaticValue(name); ok && strings.TrimSpace(v) != "" {
				return "meta_" + signaturePart(v)
			}
		}
		return e.Name
	case "link":
		if v, ok := e.StaticValue("rel"); ok && strings.TrimSpace(v) != "" {
			return "link_" + signaturePart(v)
		}
		return e.Name
	}
	if id, ok := e.StaticValue("id"); ok && strings.TrimSpace(id) != "" {
		return signaturePart(id)
	}
	classes := ClassList(e)
	if len(classes) == 0 {
		return e.Name
	}
	return e.Name + "_" + strings.Join(classes, "_")
}

// SignatureOf returns the signature of n if it is an element, following
// conditionals and loops, and fallback otherwise.
func SignatureOf(n Node, fallback string) string {
	if e, ok := Unwrap(n).(Element); ok {
		return Signature(e)
	}
	return fallback
}

// SplitClasses splits a class attribute value into sorted, unique tokens.
func SplitClasses(value string) []string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return nil
	}
	slices.Sort(fields)
	return slices.Compact(fields)
}

func signaturePart(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), "_")
}
