package fetch

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// extractReadable parses markup and returns the document title and its
// visible prose. Script, style, and page-chrome subtrees are dropped;
// block boundaries become blank lines.
func extractReadable(raw string) (title, text string) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", salvageText(raw)
	}
	var w walker
	w.visit(doc)
	return strings.TrimSpace(w.title), tidy(w.body.String())
}

// walker accumulates the title and body text in one DOM pass.
type walker struct {
	title string
	body  strings.Builder
}

// droppedTags are subtrees that never contribute readable prose.
var droppedTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Svg:      true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Header:   true,
}

func (w *walker) visit(n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		// The head contributes only the title.
		if n.DataAtom == atom.Head {
			if t := findTitle(n); t != "" {
				w.title = t
			}
			return
		}
		if droppedTags[n.DataAtom] {
			return
		}
		if isBlock(n.DataAtom) && w.body.Len() > 0 {
			w.body.WriteString("\n\n")
		}
	case html.TextNode:
		if s := strings.TrimSpace(n.Data); s != "" {
			w.body.WriteString(s)
			w.body.WriteByte(' ')
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.visit(c)
	}

	if n.Type == html.ElementNode && (n.DataAtom == atom.Br || n.DataAtom == atom.Li) {
		w.body.WriteByte('\n')
	}
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		return textOf(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// textOf concatenates the text nodes under n.
func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Main,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Ul, atom.Ol, atom.Table,
		atom.Tr, atom.Dl, atom.Dd, atom.Dt, atom.Figcaption,
		atom.Figure, atom.Details, atom.Summary, atom.Hr:
		return true
	}
	return false
}

// tidy collapses intra-line whitespace and runs of blank lines.
func tidy(s string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// salvageText is the fallback for markup the parser rejects: keep only
// the text tokens.
func salvageText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tidy(b.String())
		case html.TextToken:
			b.Write(z.Text())
			b.WriteByte(' ')
		}
	}
}
