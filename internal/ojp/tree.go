package ojp

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// node is an element with its qualified name exactly as written in the
// document ("ojp:Text", "Text"). Namespace prefixes are kept on purpose: the
// two dialects are told apart by prefix, not by namespace URI.
type node struct {
	name     string
	text     string
	children []*node
}

// tag is a lookup key: the prefixed name is tried first, then the bare one
type tag struct {
	primary  string
	fallback string
}

func ojpTag(local string) tag  { return tag{primary: "ojp:" + local, fallback: local} }
func siriTag(local string) tag { return tag{primary: "siri:" + local, fallback: local} }

var errUnexpectedEOF = errors.New("unexpected end of document")

// parseTree reads the whole document into a node tree and returns the root element
func parseTree(body []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var (
		root  *node
		stack []*node
		texts []*strings.Builder
	)

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			if len(stack) > 0 || root == nil {
				return nil, errUnexpectedEOF
			}
			return root, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: qualifiedName(t.Name)}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
			texts = append(texts, &strings.Builder{})
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected closing tag %s", qualifiedName(t.Name))
			}
			top := stack[len(stack)-1]
			if name := qualifiedName(t.Name); name != top.name {
				return nil, fmt.Errorf("closing tag %s does not match %s", name, top.name)
			}
			top.text = strings.TrimSpace(texts[len(texts)-1].String())
			stack = stack[:len(stack)-1]
			texts = texts[:len(texts)-1]
		case xml.CharData:
			if len(texts) > 0 {
				texts[len(texts)-1].Write(t)
			}
		}
	}
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// is reports whether the node matches either form of the tag
func (n *node) is(t tag) bool {
	return n != nil && (n.name == t.primary || n.name == t.fallback)
}

// child returns the first child matching the prefixed name, otherwise the first
// child matching the bare name
func (n *node) child(t tag) *node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.name == t.primary {
			return c
		}
	}
	for _, c := range n.children {
		if c.name == t.fallback {
			return c
		}
	}
	return nil
}

// all returns children matching the prefixed name, or the bare name if none do
func (n *node) all(t tag) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	for _, c := range n.children {
		if c.name == t.primary {
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, c := range n.children {
		if c.name == t.fallback {
			out = append(out, c)
		}
	}
	return out
}

// path follows a chain of child lookups
func (n *node) path(tags ...tag) *node {
	cur := n
	for _, t := range tags {
		cur = cur.child(t)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// textValue returns the element's own text or, for text containers, the text
// of its Text child
func (n *node) textValue() string {
	if n == nil {
		return ""
	}
	if t := n.child(ojpTag("Text")); t != nil && t.text != "" {
		return t.text
	}
	return n.text
}
