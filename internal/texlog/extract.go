package texlog

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	// ./chapters/intro.tex:42: Undefined control sequence.
	fileLineRe = regexp.MustCompile(`^(\S+?\.(?:tex|sty|cls|ltx|def|cfg|clo|bbl|ind|glo)):(\d+):\s*(.*)$`)
	// l.42 \badmacro
	errLineRe = regexp.MustCompile(`^l\.(\d+)`)
	// LaTeX Warning: ... / Package hyperref Warning: ... / Class book Warning: ...
	warningRe = regexp.MustCompile(`^(?:LaTeX|(?:Package|Class)\s+\S+)\s+Warning:\s*(.*)$`)
	// ... on input line 17.
	inputLineRe = regexp.MustCompile(`on input line (\d+)\.?\s*$`)
	// Overfull \hbox (12.3pt too wide) in paragraph at lines 10--12
	boxRe = regexp.MustCompile(`^(Overfull|Underfull) \\[hv]box.*at lines? (\d+)`)
)

// Extract parses a combined engine transcript into ordered diagnostics.
// Diagnostics whose source file cannot be determined from the transcript
// attribute to entry. It never fails: unparseable content simply yields no
// diagnostics.
func Extract(output []byte, entry string) []Diagnostic {
	e := &extractor{entry: entry}

	scanner := bufio.NewScanner(bytes.NewReader(decode(output)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		e.line(scanner.Text())
	}
	e.flush()
	return e.diags
}

// decode returns output as valid UTF-8. Engines emit Latin-1 on some
// platforms, so invalid UTF-8 is reinterpreted rather than dropped.
func decode(output []byte) []byte {
	if utf8.Valid(output) {
		return output
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(output)
	if err != nil {
		return output
	}
	return decoded
}

type extractor struct {
	entry string
	diags []Diagnostic

	// stack mirrors the open-file parentheses the engine prints while
	// reading inputs. The top is the innermost file.
	stack []string

	pendingErr  *Diagnostic
	pendingWarn *Diagnostic
}

func (e *extractor) line(raw string) {
	line := strings.TrimRight(raw, "\r")

	if e.pendingErr != nil {
		if m := errLineRe.FindStringSubmatch(line); m != nil {
			e.pendingErr.Line, _ = strconv.Atoi(m[1])
			e.flushErr()
			return
		}
		// The l.N context follows within a few lines; a new diagnostic or
		// a page break means it never will.
		if strings.HasPrefix(line, "! ") || line == "" {
			e.flushErr()
		}
	}

	if e.pendingWarn != nil {
		if line == "" || !e.continuesWarning(line) {
			e.flushWarn()
		} else {
			e.pendingWarn.Message += " " + strings.TrimSpace(stripPackagePrefix(line))
			if m := inputLineRe.FindStringSubmatch(e.pendingWarn.Message); m != nil {
				e.pendingWarn.Line, _ = strconv.Atoi(m[1])
				e.flushWarn()
			}
			return
		}
	}

	switch {
	case fileLineRe.MatchString(line):
		m := fileLineRe.FindStringSubmatch(line)
		lineNo, _ := strconv.Atoi(m[2])
		e.diags = append(e.diags, Diagnostic{
			Severity: SeverityError,
			File:     normalizeFile(m[1]),
			Line:     lineNo,
			Message:  strings.TrimSpace(m[3]),
		})

	case strings.HasPrefix(line, "! "):
		e.pendingErr = &Diagnostic{
			Severity: SeverityError,
			File:     e.currentFile(),
			Message:  strings.TrimSpace(line[2:]),
		}

	case warningRe.MatchString(line):
		m := warningRe.FindStringSubmatch(line)
		e.pendingWarn = &Diagnostic{
			Severity: SeverityWarning,
			File:     e.currentFile(),
			Message:  strings.TrimSpace(m[1]),
		}
		if lm := inputLineRe.FindStringSubmatch(e.pendingWarn.Message); lm != nil {
			e.pendingWarn.Line, _ = strconv.Atoi(lm[1])
			e.flushWarn()
		} else if strings.HasSuffix(e.pendingWarn.Message, ".") {
			e.flushWarn()
		}

	case boxRe.MatchString(line):
		m := boxRe.FindStringSubmatch(line)
		lineNo, _ := strconv.Atoi(m[2])
		e.diags = append(e.diags, Diagnostic{
			Severity: SeverityInfo,
			File:     e.currentFile(),
			Line:     lineNo,
			Message:  strings.TrimSpace(line),
		})

	default:
		e.trackFiles(line)
	}
}

// continuesWarning reports whether line is a wrapped continuation of the
// pending warning. Engines hard-wrap at 79 columns and end the message with
// a period, so an unterminated pending message continues onto line.
func (e *extractor) continuesWarning(line string) bool {
	if strings.HasSuffix(e.pendingWarn.Message, ".") {
		return false
	}
	return !strings.HasPrefix(line, "! ") && !warningRe.MatchString(line)
}

// stripPackagePrefix removes the "(pkgname)" gutter package warnings put on
// continuation lines.
func stripPackagePrefix(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "(") {
		if idx := strings.IndexByte(trimmed, ')'); idx > 0 && !strings.ContainsAny(trimmed[1:idx], " \t") {
			return trimmed[idx+1:]
		}
	}
	return trimmed
}

// trackFiles updates the include-file stack from the parentheses the engine
// prints as it opens and closes inputs.
func (e *extractor) trackFiles(line string) {
	i := 0
	for i < len(line) {
		switch line[i] {
		case '(':
			name, next := scanFileName(line, i+1)
			if name != "" {
				e.stack = append(e.stack, normalizeFile(name))
			} else {
				// Non-file group, push a marker so its ')' pops cleanly.
				e.stack = append(e.stack, "")
			}
			i = next
		case ')':
			if n := len(e.stack); n > 0 {
				e.stack = e.stack[:n-1]
			}
			i++
		default:
			i++
		}
	}
}

// scanFileName reads a path-shaped token starting at position i, returning
// the token (empty when the group does not open a file) and the position to
// resume scanning at.
func scanFileName(line string, i int) (string, int) {
	j := i
	for j < len(line) && !strings.ContainsRune(" \t()", rune(line[j])) {
		j++
	}
	token := line[i:j]
	if looksLikeFile(token) {
		return token, j
	}
	return "", i
}

func looksLikeFile(token string) bool {
	if token == "" || !strings.ContainsRune(token, '.') {
		return false
	}
	return strings.HasPrefix(token, "./") || strings.HasPrefix(token, "/") ||
		strings.HasSuffix(token, ".tex") || strings.HasSuffix(token, ".sty") ||
		strings.HasSuffix(token, ".cls")
}

// currentFile returns the innermost open file; with no file open the entry
// document is the only thing the engine can have been reading.
func (e *extractor) currentFile() string {
	for i := len(e.stack) - 1; i >= 0; i-- {
		if e.stack[i] != "" {
			return e.stack[i]
		}
	}
	return e.entry
}

func normalizeFile(name string) string {
	return strings.TrimPrefix(name, "./")
}

func (e *extractor) flushErr() {
	if e.pendingErr != nil {
		e.diags = append(e.diags, *e.pendingErr)
		e.pendingErr = nil
	}
}

func (e *extractor) flushWarn() {
	if e.pendingWarn != nil {
		e.pendingWarn.Message = strings.TrimSpace(e.pendingWarn.Message)
		e.diags = append(e.diags, *e.pendingWarn)
		e.pendingWarn = nil
	}
}

func (e *extractor) flush() {
	e.flushErr()
	e.flushWarn()
}
