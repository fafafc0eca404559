package preview

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/textutil"
)

const excerptRunes = 280

// skipped elements never contribute body text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Svg:      true,
	atom.Nav:      true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Aside:    true,
	atom.Form:     true,
}

// block elements end a line of text.
var block = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.Article: true, atom.Section: true, atom.Blockquote: true,
}

func parseHTML(r io.Reader) (*source.Preview, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	p := &source.Preview{}
	var title, ogTitle, description string
	var body, article strings.Builder

	var walk func(n *html.Node, inArticle bool)
	walk = func(n *html.Node, inArticle bool) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Meta:
				key := attr(n, "property")
				if key == "" {
					key = attr(n, "name")
				}
				content := strings.TrimSpace(attr(n, "content"))
				switch strings.ToLower(key) {
				case "og:title", "twitter:title":
					if ogTitle == "" {
						ogTitle = content
					}
				case "og:image", "twitter:image":
					if p.Image == "" {
						p.Image = content
					}
				case "og:description", "description", "twitter:description":
					if description == "" {
						description = content
					}
				}
				return
			case atom.Title:
				if n.FirstChild != nil && title == "" {
					title = n.FirstChild.Data
				}
				return
			case atom.Article:
				inArticle = true
			}
			if skipped[n.DataAtom] {
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				body.WriteString(t)
				body.WriteByte(' ')
				if inArticle {
					article.WriteString(t)
					article.WriteByte(' ')
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inArticle)
		}
		if n.Type == html.ElementNode && block[n.DataAtom] {
			body.WriteByte('\n')
			if inArticle {
				article.WriteByte('\n')
			}
		}
	}
	walk(doc, false)

	p.Title = textutil.Normalize(ogTitle)
	if p.Title == "" {
		p.Title = textutil.Normalize(title)
	}
	p.Summary = textutil.Normalize(description)

	// An <article> element is a better content boundary than the whole body.
	content := article.String()
	if textutil.RuneLen(strings.TrimSpace(content)) == 0 {
		content = body.String()
	}
	p.Content = textutil.Normalize(content)
	return p, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
