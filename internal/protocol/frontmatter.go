package protocol

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/nao1215/pagescope/internal/model"
)

const frontmatterDelimiter = "---"

var (
	topLevelKey = regexp.MustCompile(`^([A-Za-z_][\w-]*):\s*(.*)$`)
	nestedKey   = regexp.MustCompile(`^(\s+)([A-Za-z_][\w-]*):\s*(.*)$`)
	listItem    = regexp.MustCompile(`^(\s*)-\s*(.*)$`)
	inlineKey   = regexp.MustCompile(`^([A-Za-z_][\w-]*):\s*(.*)$`)
)

// section is the block the scanner is currently inside.
type section int

const (
	sectionNone section = iota
	sectionActions
	sectionLinks
	sectionInternalLinks
)

// ParseFrontmatter splits a protocol response body into its frontmatter and
// Markdown body. It reports false when the body does not start with a
// "---" delimited block.
//
// Only the known keys are recognized: summary, the actions list (name,
// description, url) and links.internal (url, title). The scanner is line
// oriented and skips lines it does not understand.
func ParseFrontmatter(body string) (*model.Frontmatter, bool) {
	body = strings.TrimPrefix(strings.ReplaceAll(body, "\r\n", "\n"), "\ufeff")
	if !strings.HasPrefix(body, frontmatterDelimiter+"\n") {
		return nil, false
	}

	rest := body[len(frontmatterDelimiter)+1:]
	var block []string
	closed := false
	scanner := bufio.NewScanner(strings.NewReader(rest))
	scanner.Buffer(make([]byte, 0, 64*1024), DefaultMaxBodySize)
	consumed := 0
	for scanner.Scan() {
		line := scanner.Text()
		consumed += len(line) + 1
		if strings.TrimRight(line, " \t") == frontmatterDelimiter {
			closed = true
			break
		}
		block = append(block, line)
	}
	if !closed {
		return nil, false
	}

	fm := scanFrontmatter(block)
	if consumed < len(rest) {
		fm.Body = strings.TrimSpace(rest[consumed:])
	}
	return fm, true
}

// frontmatterScanner walks the block one line at a time.
type frontmatterScanner struct {
	fm             *model.Frontmatter
	section        section
	internalIndent int
	action         *model.DeclaredAction
	link           *model.DeclaredLink
}

func scanFrontmatter(lines []string) *model.Frontmatter {
	s := &frontmatterScanner{fm: &model.Frontmatter{}}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		s.line(line)
	}
	s.flush()
	return s.fm
}

func (s *frontmatterScanner) line(line string) {
	if m := topLevelKey.FindStringSubmatch(line); m != nil {
		s.flush()
		s.topLevel(m[1], m[2])
		return
	}

	switch s.section {
	case sectionActions:
		s.actionLine(line)
	case sectionLinks:
		if m := nestedKey.FindStringSubmatch(line); m != nil && m[2] == "internal" && strings.TrimSpace(m[3]) == "" {
			s.section = sectionInternalLinks
			s.internalIndent = len(m[1])
		}
	case sectionInternalLinks:
		if m := nestedKey.FindStringSubmatch(line); m != nil && len(m[1]) <= s.internalIndent {
			s.flush()
			s.section = sectionLinks
			s.line(line)
			return
		}
		s.linkLine(line)
	}
}

func (s *frontmatterScanner) topLevel(key, value string) {
	s.section = sectionNone
	value = strings.TrimSpace(value)
	switch key {
	case "summary":
		if value != "" {
			summary := unquote(value)
			s.fm.Summary = &summary
		}
	case "actions":
		if value == "" {
			s.section = sectionActions
		}
	case "links":
		if value == "" {
			s.section = sectionLinks
		}
	}
}

func (s *frontmatterScanner) actionLine(line string) {
	if m := listItem.FindStringSubmatch(line); m != nil {
		s.flush()
		s.action = &model.DeclaredAction{}
		if kv := inlineKey.FindStringSubmatch(m[2]); kv != nil {
			s.setActionField(kv[1], kv[2])
		} else if m[2] != "" {
			s.action.Name = unquote(m[2])
		}
		return
	}
	if m := nestedKey.FindStringSubmatch(line); m != nil && s.action != nil {
		s.setActionField(m[2], m[3])
	}
}

func (s *frontmatterScanner) setActionField(key, value string) {
	value = unquote(value)
	switch key {
	case "name":
		s.action.Name = value
	case "description":
		s.action.Description = value
	case "url", "href", "endpoint":
		s.action.URL = value
	}
}

func (s *frontmatterScanner) linkLine(line string) {
	if m := listItem.FindStringSubmatch(line); m != nil {
		s.flush()
		s.link = &model.DeclaredLink{}
		if kv := inlineKey.FindStringSubmatch(m[2]); kv != nil && linkKeys[kv[1]] {
			s.setLinkField(kv[1], kv[2])
		} else if m[2] != "" {
			s.link.URL = unquote(m[2])
		}
		return
	}
	if m := nestedKey.FindStringSubmatch(line); m != nil && s.link != nil {
		s.setLinkField(m[2], m[3])
	}
}

// linkKeys are the recognized fields of a links.internal entry.
var linkKeys = map[string]bool{
	"url": true, "href": true, "path": true,
	"title": true, "name": true, "context": true, "description": true,
}

func (s *frontmatterScanner) setLinkField(key, value string) {
	value = unquote(value)
	switch key {
	case "url", "href", "path":
		s.link.URL = value
	case "title", "name", "context", "description":
		s.link.Title = value
	}
}

// flush stores the list item under construction.
func (s *frontmatterScanner) flush() {
	if s.action != nil && s.action.Name != "" {
		s.fm.Actions = append(s.fm.Actions, *s.action)
	}
	if s.link != nil && s.link.URL != "" {
		s.fm.InternalLinks = append(s.fm.InternalLinks, *s.link)
	}
	s.action, s.link = nil, nil
}

// unquote strips matching single or double quotes.
func unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < 2 {
		return v
	}
	switch {
	case v[0] == '"' && v[len(v)-1] == '"':
		if u, err := strconv.Unquote(v); err == nil {
			return u
		}
		return v[1 : len(v)-1]
	case v[0] == '\'' && v[len(v)-1] == '\'':
		return strings.ReplaceAll(v[1:len(v)-1], "''", "'")
	}
	return v
}
