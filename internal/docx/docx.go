package docx

// Package docx implements placeholder extraction and substitution for OOXML
// word-processor files. The container is a zip archive; placeholder text
// lives in word/document.xml and the header/footer parts. Word frequently
// splits literal text across runs, so the scanner works on the concatenated
// text content of each part while remembering where every text byte sits in
// the raw XML. Replacement then splices the raw XML between the delimiter
// positions, which also drops the run boundaries Word injected inside a
// placeholder.
//
// Only simple insertion placeholders are supported. Control constructs
// (loops, conditionals, fragment includes) fail extraction with
// UNSUPPORTED_PLACEHOLDER; this is a documented limitation, not a silent
// no-op.

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"templify/internal/apperror"
)

// Delimiters bound a placeholder inside the document text.
type Delimiters struct {
	Start string
	End   string
}

// DefaultDelimiters is the {{name}} syntax.
var DefaultDelimiters = Delimiters{Start: "{{", End: "}}"}

const documentPart = "word/document.xml"

var dotSpaceRe = regexp.MustCompile(`\s*\.\s*`)

// control construct markers of the common docx templating syntaxes.
var controlWords = map[string]bool{
	"IF": true, "ELSE": true, "FOR": true, "END-IF": true, "END-FOR": true, "LOOP": true,
}

// ExtractVariables returns the distinct placeholder names declared in the
// document, in first-seen order: body first, then headers and footers in
// part-name order. Whitespace around dot separators is insignificant.
func ExtractVariables(data []byte, d Delimiters) ([]string, error) {
	parts, err := readParts(data)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidTemplate, "file is not a valid template", err)
	}

	var names []string
	seen := make(map[string]bool)
	for _, p := range parts {
		for _, s := range scanPlaceholders(p.content, d) {
			if s.control {
				return nil, apperror.New(apperror.KindUnsupportedPlaceholder,
					fmt.Sprintf("unsupported control construct %q; only simple placeholders are supported", s.name))
			}
			if !seen[s.name] {
				seen[s.name] = true
				names = append(names, s.name)
			}
		}
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Render substitutes values into every placeholder and returns the rewritten
// container. Missing variables render as empty content; extra keys are
// ignored; control constructs are left untouched.
func Render(data []byte, values map[string]any, d Delimiters) ([]byte, error) {
	parts, err := readParts(data)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindRenderError, "file is not a valid template", err)
	}

	rewritten := make(map[string][]byte, len(parts))
	for _, p := range parts {
		spans := scanPlaceholders(p.content, d)
		if len(spans) == 0 {
			continue
		}
		rewritten[p.name] = substitute(p.content, spans, values)
	}

	return rewriteArchive(data, rewritten)
}

// part is one scannable XML entry of the container.
type part struct {
	name    string
	content []byte
}

// readParts opens the container and returns the body plus header/footer
// parts. The body part is mandatory.
func readParts(data []byte) ([]part, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var body *part
	var extra []part
	for _, f := range zr.File {
		if f.Name != documentPart && !isHeaderFooter(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		p := part{name: f.Name, content: content}
		if f.Name == documentPart {
			body = &p
		} else {
			extra = append(extra, p)
		}
	}
	if body == nil {
		return nil, fmt.Errorf("missing %s", documentPart)
	}

	sort.Slice(extra, func(i, j int) bool { return extra[i].name < extra[j].name })
	return append([]part{*body}, extra...), nil
}

func isHeaderFooter(name string) bool {
	if !strings.HasSuffix(name, ".xml") {
		return false
	}
	return strings.HasPrefix(name, "word/header") || strings.HasPrefix(name, "word/footer")
}

// span is one placeholder occurrence: its normalized name and the raw byte
// range covering the opening through the closing delimiter.
type span struct {
	name     string
	rawStart int
	rawEnd   int
	control  bool
}

// scanPlaceholders finds placeholder occurrences in one XML part. The text
// content is concatenated across tags so delimiters split over runs are
// still matched. Unclosed delimiters are treated as literal text.
func scanPlaceholders(raw []byte, d Delimiters) []span {
	text, pos := textContent(raw)

	var spans []span
	for i := 0; ; {
		open := bytes.Index(text[i:], []byte(d.Start))
		if open < 0 {
			break
		}
		open += i
		end := bytes.Index(text[open+len(d.Start):], []byte(d.End))
		if end < 0 {
			break
		}
		end += open + len(d.Start)

		inner := string(text[open+len(d.Start) : end])
		name := normalizeName(inner)
		if name != "" {
			spans = append(spans, span{
				name:     name,
				rawStart: pos[open],
				rawEnd:   pos[end+len(d.End)-1] + 1,
				control:  isControl(name),
			})
		}
		i = end + len(d.End)
	}
	return spans
}

// textContent strips XML tags and returns the remaining text bytes along
// with each byte's index in raw.
func textContent(raw []byte) ([]byte, []int) {
	text := make([]byte, 0, len(raw))
	pos := make([]int, 0, len(raw))
	inTag := false
	for i, b := range raw {
		switch {
		case b == '<':
			inTag = true
		case b == '>':
			inTag = false
		case !inTag:
			text = append(text, b)
			pos = append(pos, i)
		}
	}
	return text, pos
}

// normalizeName trims the placeholder code and removes whitespace around
// dot separators, so "{{ user . name }}" names the same variable as
// "{{user.name}}".
func normalizeName(inner string) string {
	return strings.TrimSpace(dotSpaceRe.ReplaceAllString(inner, "."))
}

// isControl reports whether the placeholder code is a control construct of
// one of the known templating syntaxes rather than a simple insertion.
func isControl(name string) bool {
	switch name[0] {
	case '#', '^', '/', '>', '=', '!', '*':
		return true
	}
	first := name
	if idx := strings.IndexAny(name, " \t"); idx >= 0 {
		first = name[:idx]
	}
	return controlWords[strings.ToUpper(first)]
}

// substitute splices values into the raw XML at each non-control span.
// Spans are in ascending raw order by construction.
func substitute(raw []byte, spans []span, values map[string]any) []byte {
	var out bytes.Buffer
	out.Grow(len(raw))
	cursor := 0
	for _, s := range spans {
		if s.control {
			continue
		}
		out.Write(raw[cursor:s.rawStart])
		out.WriteString(escapeXML(lookup(values, s.name)))
		cursor = s.rawEnd
	}
	out.Write(raw[cursor:])
	return out.Bytes()
}

// lookup resolves a dotted path into the value mapping. Missing keys and
// non-map intermediate values render as empty content.
func lookup(values map[string]any, name string) string {
	segs := strings.Split(name, ".")
	var cur any = values
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur, ok = m[seg]
		if !ok {
			return ""
		}
	}
	if cur == nil {
		return ""
	}
	switch v := cur.(type) {
	case string:
		return v
	case map[string]any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// rewriteArchive copies the container, swapping in rewritten parts and
// preserving every other entry byte-for-byte.
func rewriteArchive(data []byte, rewritten map[string][]byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindRenderError, "file is not a valid template", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		content, ok := rewritten[f.Name]
		if !ok {
			rc, err := f.Open()
			if err != nil {
				return nil, apperror.Wrap(apperror.KindRenderError, "failed to render template", err)
			}
			content, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, apperror.Wrap(apperror.KindRenderError, "failed to render template", err)
			}
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: f.Method})
		if err != nil {
			return nil, apperror.Wrap(apperror.KindRenderError, "failed to render template", err)
		}
		if _, err := w.Write(content); err != nil {
			return nil, apperror.Wrap(apperror.KindRenderError, "failed to render template", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, apperror.Wrap(apperror.KindRenderError, "failed to render template", err)
	}
	return buf.Bytes(), nil
}
