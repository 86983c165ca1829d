// Package snapshot enumerates the interactive elements of a page and names
// them with short sequential tokens.
//
// The scan runs over the page's serialized DOM. Categories are visited in a
// fixed order and each category's matches in document order; an element
// matched by more than one category keeps its first position only. Tokens
// are therefore stable for an unchanged DOM.
package snapshot

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Categories lists the element selectors scanned, in priority order. Hidden
// inputs are dropped by the scan itself.
var Categories = []string{
	"a[href]",
	"button",
	"input",
	"textarea",
	"select",
	`[role="button"]`,
	`[role="link"]`,
	`[role="textbox"]`,
	`[contenteditable="true"]`,
}

// MaxTextLength caps the visible text kept per element, in characters.
const MaxTextLength = 80

// TokenPrefix starts every reference token.
const TokenPrefix = "@e"

// Element is one interactive element found by a scan.
type Element struct {
	Tag     string `json:"tag"`
	Type    string `json:"type,omitempty"`
	Role    string `json:"role,omitempty"`
	Text    string `json:"text,omitempty"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Locator string `json:"locator"`
}

// Result is a completed snapshot.
type Result struct {
	// Refs maps each token to its element's locator
	Refs map[string]string

	// Elements holds one description line per token, in token order
	Elements []string

	// Scanned holds the elements behind the tokens, in token order
	Scanned []Element
}

// Count returns the number of tokens assigned.
func (r *Result) Count() int {
	return len(r.Elements)
}

// Token returns the reference token for the n-th element, 1-based.
func Token(n int) string {
	return fmt.Sprintf("%s%d", TokenPrefix, n)
}

// Take scans the serialized DOM in src and assigns tokens @e1..@eN.
func Take(src string) (*Result, error) {
	elements, err := Scan(src)
	if err != nil {
		return nil, err
	}
	return Assign(elements), nil
}

// Assign numbers elements in order and builds their descriptions.
func Assign(elements []Element) *Result {
	result := &Result{
		Refs:     make(map[string]string, len(elements)),
		Elements: make([]string, 0, len(elements)),
		Scanned:  elements,
	}
	for i, el := range elements {
		token := Token(i + 1)
		result.Refs[token] = el.Locator
		result.Elements = append(result.Elements, Describe(token, el))
	}
	return result
}

// Scan parses src and returns its interactive elements in scan order.
func Scan(src string) ([]Element, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page content: %w", err)
	}
	return ScanDocument(goquery.NewDocumentFromNode(root)), nil
}

// ScanDocument runs the category scan over an already parsed document.
func ScanDocument(doc *goquery.Document) []Element {
	seen := make(map[*html.Node]bool)
	var elements []Element

	for _, category := range Categories {
		doc.Find(category).Each(func(_ int, sel *goquery.Selection) {
			node := sel.Get(0)
			if seen[node] || !live(node) {
				return
			}
			seen[node] = true
			elements = append(elements, describeNode(sel))
		})
	}
	return elements
}

// live reports whether a live DOM query would return node. The parser keeps
// template content in the tree, and type keywords compare case-insensitively.
func live(node *html.Node) bool {
	if node.Data == "input" && strings.EqualFold(attr(node, "type"), "hidden") {
		return false
	}
	for p := node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "template" {
			return false
		}
	}
	return true
}

func attr(node *html.Node, key string) string {
	for _, a := range node.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func describeNode(sel *goquery.Selection) Element {
	tag := strings.ToLower(goquery.NodeName(sel))
	id, _ := sel.Attr("id")
	name, _ := sel.Attr("name")
	typ, _ := sel.Attr("type")
	role, _ := sel.Attr("role")

	return Element{
		Tag:     tag,
		Type:    typ,
		Role:    role,
		Text:    visibleText(sel),
		ID:      id,
		Name:    name,
		Locator: Locator(tag, id, name, typ, role),
	}
}

// visibleText prefers text content, then aria-label, then placeholder.
// The fallback applies only when the raw text content is empty.
func visibleText(sel *goquery.Selection) string {
	text := sel.Text()
	if text == "" {
		text, _ = sel.Attr("aria-label")
	}
	if text == "" {
		text, _ = sel.Attr("placeholder")
	}
	return truncate(strings.TrimSpace(text), MaxTextLength)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Locator derives the most specific selector available for an element:
// id, then name, then type, then role, then the bare tag.
func Locator(tag, id, name, typ, role string) string {
	switch {
	case id != "":
		return "#" + CSSEscape(id)
	case name != "":
		return fmt.Sprintf(`%s[name="%s"]`, tag, CSSEscape(name))
	case typ != "":
		return fmt.Sprintf(`%s[type="%s"]`, tag, typ)
	case role != "":
		return fmt.Sprintf(`[role="%s"]`, role)
	default:
		return tag
	}
}

// Describe renders the one-line description returned to the caller, e.g.
// `@e1: button "Send"` or `@e4: input type=text "Search"`.
func Describe(token string, el Element) string {
	parts := []string{el.Tag}
	if el.Type != "" {
		parts = append(parts, "type="+el.Type)
	}
	if el.Role != "" {
		parts = append(parts, "role="+el.Role)
	}
	if el.Text != "" {
		parts = append(parts, `"`+el.Text+`"`)
	}
	return token + ": " + strings.Join(parts, " ")
}
