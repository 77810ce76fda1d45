package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Iron-Ham/taskwatch/internal/errors"
	"github.com/Iron-Ham/taskwatch/internal/util"
)

var (
	urgentColor = lipgloss.Color("#F87171") // Red
	warnColor   = lipgloss.Color("#F59E0B") // Amber
	infoColor   = lipgloss.Color("#60A5FA") // Blue
	mutedColor  = lipgloss.Color("#9CA3AF") // Gray
)

// ConsoleSink prints one line per notification. Lines are styled only when
// color is enabled and the writer is a terminal.
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer

	styled bool
	width  int // terminal columns; 0 disables clipping
	badge  map[Kind]lipgloss.Style
	urgent lipgloss.Style
	muted  lipgloss.Style
}

// NewConsoleSink creates a ConsoleSink writing to out.
func NewConsoleSink(out io.Writer, color bool) *ConsoleSink {
	r := lipgloss.NewRenderer(out)
	badge := r.NewStyle().Bold(true).Padding(0, 1)
	styled := color && isTerminal(out)
	return &ConsoleSink{
		out:    out,
		styled: styled,
		width:  terminalWidth(out, styled),
		badge: map[Kind]lipgloss.Style{
			KindApproaching: badge.Foreground(warnColor),
			KindOverdue:     badge.Foreground(urgentColor),
			KindMeeting:     badge.Foreground(infoColor),
		},
		urgent: r.NewStyle().Bold(true),
		muted:  r.NewStyle().Foreground(mutedColor),
	}
}

// Deliver implements Sink.
func (c *ConsoleSink) Deliver(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line := c.format(n)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintln(c.out, line); err != nil {
		return errors.Wrap(errors.Join(errors.ErrDeliveryFailed, err), "console sink")
	}
	return nil
}

func (c *ConsoleSink) format(n Notification) string {
	stamp := n.At.Format("15:04")
	label := strings.ToUpper(n.Kind.String())
	msg := n.Message
	if n.Urgent {
		msg = "! " + msg
	}

	if !c.styled {
		return fmt.Sprintf("%s %-11s %s", stamp, label, msg)
	}

	badge, ok := c.badge[n.Kind]
	if !ok {
		badge = c.muted
	}
	if n.Urgent {
		msg = c.urgent.Render(msg)
	}
	line := fmt.Sprintf("%s %s %s", c.muted.Render(stamp), badge.Render(label), msg)
	return util.TruncateWidth(line, c.width)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer, styled bool) int {
	if !styled {
		return 0
	}
	f := w.(*os.File)
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
