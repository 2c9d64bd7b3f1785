package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var forceColorOnce sync.Once

func shouldPrettyPrint() bool {
	term := strings.TrimSpace(os.Getenv("TERM"))
	if term == "" || term == "dumb" {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	// CI runners usually set TERM but still want plain, greppable lines.
	if os.Getenv("CI") != "" {
		return false
	}
	return true
}

func FormatEventLine(event Event) string {
	var b strings.Builder
	b.WriteString(event.Time.Format("15:04:05"))
	b.WriteString(" [")
	b.WriteString(LevelName(event.Level))
	b.WriteString("] ")
	b.WriteString(event.Message)
	for _, key := range orderedFieldKeys(event.Fields) {
		fmt.Fprintf(&b, " %s=%s", key, formatFieldValue(event.Fields[key]))
	}
	b.WriteByte('\n')
	return b.String()
}

// FormatEventANSI renders an event for an interactive terminal. JSON-shaped
// fields are drawn as boxed blocks under the header line.
func FormatEventANSI(event Event) string {
	forceColorOnce.Do(func() {
		lipgloss.SetColorProfile(termenv.TrueColor)
	})

	ts := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(event.Time.Format("15:04:05.000"))
	badge := levelStyle(event.Level).Render(LevelName(event.Level))
	msg := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render(event.Message)
	line := lipgloss.JoinHorizontal(lipgloss.Center, ts, " ", badge, " ", msg)

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	valStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	sepStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("245")).
		Padding(0, 1)

	inline := make([]string, 0, len(event.Fields))
	var blocks []string
	for _, key := range orderedFieldKeys(event.Fields) {
		label := keyStyle.Render(key) + sepStyle.Render("=")
		if pretty, ok := prettyJSON(event.Fields[key]); ok {
			blocks = append(blocks, label+"\n"+boxStyle.Render(pretty))
			continue
		}
		inline = append(inline, label+valStyle.Render(formatFieldValue(event.Fields[key])))
	}
	if len(inline) > 0 {
		line += "  " + strings.Join(inline, " ")
	}
	for _, block := range blocks {
		line += "\n  " + strings.ReplaceAll(block, "\n", "\n  ")
	}
	return line + "\n"
}

func levelStyle(level slog.Level) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch LevelName(level) {
	case "DEBUG":
		return base.Foreground(lipgloss.Color("255")).Background(lipgloss.Color("240"))
	case "INFO":
		return base.Foreground(lipgloss.Color("230")).Background(lipgloss.Color("31"))
	case "OK":
		return base.Foreground(lipgloss.Color("232")).Background(lipgloss.Color("42"))
	case "WARN":
		return base.Foreground(lipgloss.Color("234")).Background(lipgloss.Color("214"))
	default:
		return base.Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160"))
	}
}

func formatFieldValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "<nil>"
	case error:
		return v.Error()
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	if pretty, ok := prettyJSON(value); ok {
		return pretty
	}
	return fmt.Sprintf("%v", value)
}

// prettyJSON reports whether value is a JSON object or array (either already
// decoded or as a JSON-shaped string) and returns it indented.
func prettyJSON(value any) (string, bool) {
	var decoded any
	switch v := value.(type) {
	case nil, error, fmt.Stringer:
		return "", false
	case string:
		if !json.Valid([]byte(strings.TrimSpace(v))) {
			return "", false
		}
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return "", false
		}
	case []byte:
		return prettyJSON(string(v))
	case map[string]any, []any, []map[string]any:
		decoded = v
	default:
		return "", false
	}
	switch decoded.(type) {
	case map[string]any, []any, []map[string]any:
	default:
		return "", false
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(decoded); err != nil {
		return "", false
	}
	return strings.TrimSpace(buf.String()), true
}

// orderedFieldKeys sorts keys with plain values first and JSON blocks last.
func orderedFieldKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	sort.SliceStable(keys, func(i, j int) bool {
		_, iJSON := prettyJSON(fields[keys[i]])
		_, jJSON := prettyJSON(fields[keys[j]])
		return !iJSON && jJSON
	})
	return keys
}
