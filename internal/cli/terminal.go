package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/bastiangx/wordmask/internal/utils"
	"github.com/bastiangx/wordmask/pkg/match"
	"github.com/charmbracelet/lipgloss"
)

// view renders prompts and results for one output stream. Colors are only
// emitted when the stream is a terminal.
type view struct {
	out     io.Writer
	title   lipgloss.Style
	prompt  lipgloss.Style
	word    lipgloss.Style
	index   lipgloss.Style
	dim     lipgloss.Style
	errText lipgloss.Style
}

func newView(out io.Writer) *view {
	r := lipgloss.NewRenderer(out)
	text := lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}
	return &view{
		out:     out,
		title:   r.NewStyle().Bold(true).Foreground(text),
		prompt:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"}),
		word:    r.NewStyle().Foreground(lipgloss.Color("75")),
		index:   r.NewStyle().Faint(true).Width(4).Align(lipgloss.Right),
		dim:     r.NewStyle().Italic(true).Faint(true),
		errText: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"}),
	}
}

func (v *view) banner(text string) {
	fmt.Fprintln(v.out, v.title.Render(text))
}

func (v *view) ask(text string) {
	fmt.Fprint(v.out, v.prompt.Render(text))
}

func (v *view) errorf(format string, args ...any) {
	fmt.Fprintln(v.out, v.errText.Render(fmt.Sprintf(format, args...)))
}

func (v *view) note(text string) {
	fmt.Fprintln(v.out, v.dim.Render(text))
}

// results prints one page of matches followed by how many remain.
func (v *view) results(res match.Result) {
	if res.Count == 0 {
		v.errorf("No words of length %d match '%s'", res.Length, res.Pattern)
		return
	}
	if res.Offset == 0 {
		fmt.Fprintln(v.out, v.title.Render(fmt.Sprintf("Found %s words of length %d",
			utils.FormatWithCommas(res.Count), res.Length)))
	}

	var sb strings.Builder
	for i, w := range res.Words {
		sb.WriteString(v.index.Render(fmt.Sprintf("%d.", res.Offset+i+1)))
		sb.WriteByte(' ')
		sb.WriteString(v.word.Render(w))
		sb.WriteByte('\n')
	}
	fmt.Fprint(v.out, sb.String())

	if rest := res.Remaining(); rest > 0 {
		v.note(fmt.Sprintf("... and %s more", utils.FormatWithCommas(rest)))
	}
}
