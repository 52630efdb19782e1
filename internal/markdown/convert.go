package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/pagescope/internal/htmldoc"
)

// Convert parses raw HTML and returns its main content as Markdown.
func Convert(raw string) (string, error) {
	doc, err := htmldoc.Parse(raw)
	if err != nil {
		return "", err
	}
	return FromDocument(doc), nil
}

// FromDocument returns the main content of doc as Markdown.
// doc is not modified.
func FromDocument(doc *goquery.Document) string {
	clone := htmldoc.Clone(doc)
	htmldoc.RemoveBoilerplate(clone.Selection)
	root := htmldoc.MainContent(clone)

	c := &converter{}
	var b strings.Builder
	for _, n := range root.Nodes {
		b.WriteString(c.children(n))
	}
	return Cleanup(b.String())
}

var (
	whitespaceRun = regexp.MustCompile(`[ \t\r\n\f]+`)
	codeLangClass = regexp.MustCompile(`(?:^|\s)(?:lang|language)-([A-Za-z0-9_+#.-]+)`)
)

// converter renders x/net/html nodes as Markdown text. Block elements are
// surrounded by blank lines, which Cleanup collapses afterwards.
type converter struct {
	listDepth int
}

func (c *converter) children(n *html.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(c.node(child))
	}
	return b.String()
}

func (c *converter) node(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return whitespaceRun.ReplaceAllString(n.Data, " ")
	case html.ElementNode:
		return c.element(n)
	case html.DocumentNode:
		return c.children(n)
	default:
		return ""
	}
}

func (c *converter) element(n *html.Node) string {
	switch n.Data {
	case "script", "style", "noscript", "template", "head":
		return ""
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		text := oneLine(c.children(n))
		if text == "" {
			return ""
		}
		return block(strings.Repeat("#", level) + " " + text)
	case "p":
		return block(tidyLines(c.children(n)))
	case "br":
		return "\n"
	case "hr":
		return block("---")
	case "strong", "b":
		return wrapInline(c.children(n), "**")
	case "em", "i":
		return wrapInline(c.children(n), "*")
	case "del", "s", "strike":
		return wrapInline(c.children(n), "~~")
	case "code":
		return wrapInline(textContent(n), "`")
	case "a":
		return c.link(n)
	case "img":
		return image(n)
	case "ul", "ol":
		return c.list(n)
	case "pre":
		return codeBlock(n)
	case "blockquote":
		return quote(c.children(n))
	case "table":
		return c.table(n)
	case "div", "section", "article", "main", "header", "footer", "figure", "figcaption",
		"dl", "dt", "dd", "details", "summary", "address":
		return block(c.children(n))
	default:
		return c.children(n)
	}
}

func (c *converter) link(n *html.Node) string {
	text := oneLine(c.children(n))
	href := strings.TrimSpace(htmldoc.Attr(n, "href"))
	lower := strings.ToLower(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(lower, "javascript:") {
		return text
	}
	if text == "" {
		text = href
	}
	return fmt.Sprintf("[%s](%s)", text, href)
}

func image(n *html.Node) string {
	src := strings.TrimSpace(htmldoc.Attr(n, "src"))
	if src == "" || strings.HasPrefix(src, "data:") {
		return ""
	}
	alt := htmldoc.CollapseSpace(htmldoc.Attr(n, "alt"))
	return fmt.Sprintf("![%s](%s)", alt, src)
}

func (c *converter) list(n *html.Node) string {
	ordered := n.Data == "ol"
	index := 1
	if start, err := strconv.Atoi(htmldoc.Attr(n, "start")); err == nil {
		index = start
	}
	indent := strings.Repeat("  ", c.listDepth)

	c.listDepth++
	defer func() { c.listDepth-- }()

	var lines []string
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		marker := "- "
		if ordered {
			marker = strconv.Itoa(index) + ". "
			index++
		}

		var inline strings.Builder
		var nested []string
		for child := li.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && (child.Data == "ul" || child.Data == "ol") {
				if sub := strings.Trim(c.list(child), "\n"); sub != "" {
					nested = append(nested, sub)
				}
				continue
			}
			inline.WriteString(c.node(child))
		}
		lines = append(lines, indent+marker+oneLine(inline.String()))
		lines = append(lines, nested...)
	}
	if len(lines) == 0 {
		return ""
	}
	if c.listDepth > 1 {
		return strings.Join(lines, "\n")
	}
	return block(strings.Join(lines, "\n"))
}

func codeBlock(n *html.Node) string {
	lang := codeLanguage(n)
	for child := n.FirstChild; child != nil && lang == ""; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == "code" {
			lang = codeLanguage(child)
		}
	}
	code := strings.Trim(textContent(n), "\n")
	if strings.TrimSpace(code) == "" {
		return ""
	}
	return block("```" + lang + "\n" + code + "\n```")
}

func codeLanguage(n *html.Node) string {
	if m := codeLangClass.FindStringSubmatch(htmldoc.Attr(n, "class")); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

func quote(inner string) string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(inner), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(lines) > 0 && lines[len(lines)-1] != ">" {
				lines = append(lines, ">")
			}
			continue
		}
		lines = append(lines, "> "+line)
	}
	if len(lines) == 0 {
		return ""
	}
	return block(strings.Join(lines, "\n"))
}

func (c *converter) table(n *html.Node) string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			switch child.Data {
			case "thead", "tbody", "tfoot":
				walk(child)
			case "tr":
				var cells []string
				for cell := child.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.Data == "th" || cell.Data == "td") {
						text := strings.ReplaceAll(oneLine(c.children(cell)), "|", `\|`)
						cells = append(cells, text)
					}
				}
				if len(cells) > 0 {
					rows = append(rows, cells)
				}
			}
		}
	}
	walk(n)
	if len(rows) == 0 {
		return ""
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	var b strings.Builder
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
		if i == 0 {
			b.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
		}
	}
	return block(strings.TrimSuffix(b.String(), "\n"))
}

// textContent returns the raw text under n with whitespace preserved.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(textContent(child))
	}
	return b.String()
}

func block(s string) string {
	s = strings.Trim(s, " \n")
	if s == "" {
		return ""
	}
	return "\n\n" + s + "\n\n"
}

func wrapInline(inner, marker string) string {
	trimmed := strings.TrimSpace(inner)
	if trimmed == "" {
		return inner
	}
	lead := inner[:len(inner)-len(strings.TrimLeft(inner, " \n"))]
	trail := inner[len(strings.TrimRight(inner, " \n")):]
	return lead + marker + trimmed + marker + trail
}

func oneLine(s string) string {
	return htmldoc.CollapseSpace(s)
}

// tidyLines trims every line of a paragraph while keeping explicit breaks.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
