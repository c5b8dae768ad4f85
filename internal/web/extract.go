package web

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ExtractArticleText reduces an HTML document to its article text.
//
// Paragraphs inside <article> are preferred, then every <p> in the document,
// then all visible text of <body>. Whitespace is collapsed and the result is
// cut to maxChars runes (no limit when maxChars <= 0).
func ExtractArticleText(htmlDoc string, maxChars int) string {
	doc, err := html.Parse(strings.NewReader(htmlDoc))
	if err != nil {
		return ""
	}
	stripInvisible(doc)

	paragraphs := collectParagraphs(doc, true)
	if len(paragraphs) == 0 {
		paragraphs = collectParagraphs(doc, false)
	}

	var text string
	if len(paragraphs) > 0 {
		text = strings.Join(paragraphs, "\n\n")
	} else {
		root := findFirst(doc, atom.Body)
		if root == nil {
			root = doc
		}
		text = nodeText(root)
	}

	return Truncate(CollapseWhitespace(text), maxChars)
}

// CollapseWhitespace replaces every whitespace run with a single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n runes. n <= 0 means no limit.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func stripInvisible(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			switch c.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				n.RemoveChild(c)
				c = next
				continue
			}
		}
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
			c = next
			continue
		}
		stripInvisible(c)
		c = next
	}
}

// collectParagraphs returns the non-empty text of <p> elements. With
// articleOnly, only paragraphs nested inside an <article> count.
func collectParagraphs(doc *html.Node, articleOnly bool) []string {
	var out []string
	var walk func(n *html.Node, inArticle bool)
	walk = func(n *html.Node, inArticle bool) {
		if n.Type == html.ElementNode {
			if n.DataAtom == atom.Article {
				inArticle = true
			}
			if n.DataAtom == atom.P && (inArticle || !articleOnly) {
				if t := CollapseWhitespace(nodeText(n)); t != "" {
					out = append(out, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inArticle)
		}
	}
	walk(doc, false)
	return out
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}
