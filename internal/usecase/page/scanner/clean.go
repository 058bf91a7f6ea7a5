package scanner

import (
	"strings"

	"golang.org/x/net/html"
)

// Subtrees that never hold a form control the user can see.
var droppedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"iframe":   true,
	"template": true,
	"link":     true,
	"meta":     true,
}

var droppedAttrs = map[string]bool{
	"style":  true,
	"srcset": true,
	"sizes":  true,
}

// prune removes comments, dropped subtrees and inline event handlers in
// place. <head> is kept for <title>.
func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && droppedTags[c.Data]:
			n.RemoveChild(c)
		case c.Type == html.ElementNode:
			c.Attr = keptAttrs(c.Attr)
			prune(c)
		default:
			prune(c)
		}
		c = next
	}
}

func keptAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		if droppedAttrs[a.Key] || strings.HasPrefix(a.Key, "on") {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}
