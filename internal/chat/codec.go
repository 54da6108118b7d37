package chat

import (
	"bufio"
	"io"
	"strings"
)

// LineReader turns a raw byte stream into logical protocol lines. Partial
// lines are buffered across reads; a final line without a terminator is
// still delivered before EOF.
type LineReader struct {
	r *bufio.Reader
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// Next returns the next line with the trailing LF/CRLF stripped and any
// invalid UTF-8 sequences discarded.
func (lr *LineReader) Next() (string, error) {
	line, err := lr.r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			// last line without newline
			return sanitize(line), nil
		}
		return "", err
	}
	return sanitize(line), nil
}

func sanitize(line string) string {
	line = strings.TrimRight(line, "\r\n")
	return strings.ToValidUTF8(line, "")
}

// ParseLine splits a logical line into a Command. The first whitespace
// delimited token is uppercased and matched against the known command set;
// the remainder is trimmed into Arg. Blank lines return ok == false and
// must not be dispatched.
func ParseLine(line string) (Command, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, false
	}

	word, rest := splitOnce(line)
	cmd := Command{Arg: rest}
	switch strings.ToUpper(word) {
	case "LOGIN":
		cmd.Kind = CmdLogin
	case "MSG":
		cmd.Kind = CmdMsg
	case "WHO":
		cmd.Kind = CmdWho
	case "DM":
		cmd.Kind = CmdDM
	case "PING":
		cmd.Kind = CmdPing
	default:
		cmd.Kind = CmdUnknown
	}
	return cmd, true
}

// splitOnce splits on the first whitespace run: "DM bob  hi there" yields
// ("DM", "bob  hi there"). The remainder keeps its internal spacing.
func splitOnce(s string) (string, string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}

// normalizeText collapses whitespace runs in broadcast text to single
// spaces, matching what clients see in a MSG fanout.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
