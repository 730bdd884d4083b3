package verygoods

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseHead parses an HTML document and returns its <head> element
func parseHead(body []byte) (*html.Node, bool) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, false
	}

	root := childElement(doc, func(n *html.Node) bool { return n.DataAtom == atom.Html })
	if root == nil {
		return nil, false
	}

	head := childElement(root, func(n *html.Node) bool { return n.DataAtom == atom.Head })
	return head, head != nil
}

// childElement returns the first direct element child of n matching match
func childElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && match(child) {
			return child
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// innerText concatenates the text children of n. Script contents are raw
// text, so this is the script source verbatim.
func innerText(n *html.Node) string {
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	}
	return sb.String()
}
