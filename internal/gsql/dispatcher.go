package gsql

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Control prefixes the console embeds in command output.
const (
	prefixCursorUp  = "__GSQL__MOVE__CURSOR___UP__"
	prefixCleanLine = "__GSQL__CLEAN__LINE__"
	prefixInteract  = "__GSQL__INTERACT__"
	prefixReturn    = "__GSQL__RETURN__CODE__"
	prefixCookie    = "__GSQL__COOKIES__"
)

const maxLineSize = 16 << 20

var (
	progressPattern = regexp.MustCompile(`^\[=*\s*\]\s[0-9]+%.*`)
	completePattern = regexp.MustCompile(`^\[=*\s*\]\s100%[^l]*`)
)

// answerablePrompts are the prompt kinds answered from QueryOptions.Answer.
var answerablePrompts = map[string]struct{}{
	"DecryptQb":       {},
	"AlterPasswordQb": {},
	"CreateUserQb":    {},
	"CreateTokenQb":   {},
	"ClearStoreQb":    {},
}

// dispatcher interprets the line stream of an interactive console response.
type dispatcher struct {
	// answer is sent back for answerable prompts when non-empty.
	answer string
	// live receives echoed text and terminal control sequences. May be nil.
	live io.Writer
	// setSession is called for every cookie line.
	setSession func(Session)
	// reply posts "<key>,<answer>" to the dialog endpoint.
	reply func(content string) error
}

// run consumes r until EOF and returns the text lines with every control line
// removed. When the server reported a non-zero return code the lines are
// returned together with a *CommandError.
func (d *dispatcher) run(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		lines  []string
		failed bool
		code   int
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, prefixReturn):
			rc, err := parseReturnCode(line)
			if err != nil {
				return lines, err
			}
			if rc != 0 {
				failed = true
				code = rc
			}

		case strings.HasPrefix(line, prefixInteract):
			parts := strings.SplitN(line, ",", 3)
			if len(parts) != 3 {
				return lines, fmt.Errorf("%w: %q", ErrProtocol, line)
			}
			kind, key := parts[1], parts[2]
			if _, ok := answerablePrompts[kind]; ok && d.answer != "" && d.reply != nil {
				if err := d.reply(key + "," + d.answer); err != nil {
					return lines, fmt.Errorf("answer %s prompt: %w", kind, err)
				}
			}

		case strings.HasPrefix(line, prefixCookie):
			_, raw, ok := strings.Cut(line, ",")
			if !ok {
				return lines, fmt.Errorf("%w: %q", ErrProtocol, line)
			}
			session, err := sessionFromCookie(raw)
			if err != nil {
				return lines, err
			}
			if d.setSession != nil {
				d.setSession(session)
			}

		case strings.HasPrefix(line, prefixCursorUp):
			parts := strings.Split(line, ",")
			if len(parts) < 2 {
				return lines, fmt.Errorf("%w: %q", ErrProtocol, line)
			}
			n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				return lines, fmt.Errorf("%w: %q", ErrProtocol, line)
			}
			d.echo(fmt.Sprintf("\033[%dA", n))

		case strings.HasPrefix(line, prefixCleanLine):
			d.echo("\033[2K")

		case progressPattern.MatchString(line):
			if completePattern.MatchString(line) {
				lines = append(lines, "")
				d.echo("")
			}

		default:
			lines = append(lines, line)
			d.echo(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("read console response: %w", err)
	}

	if failed {
		commandFailures.Inc()
		return lines, &CommandError{Code: code, Output: lines}
	}
	return lines, nil
}

func (d *dispatcher) echo(s string) {
	if d.live == nil {
		return
	}
	fmt.Fprintln(d.live, s)
}

func parseReturnCode(line string) (int, error) {
	_, raw, ok := strings.Cut(line, ",")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrProtocol, line)
	}
	rc, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: return code %q", ErrProtocol, raw)
	}
	return rc, nil
}
