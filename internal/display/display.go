// Package display renders console output. Plain sequential printing —
// the daemon's surface is voice, the terminal is a status window.
package display

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Unity-Lab-AI/cora/internal/ambient"
	"github.com/Unity-Lab-AI/cora/internal/mood"
	"github.com/Unity-Lab-AI/cora/internal/speech"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// Speech — soft sky blue for what the assistant says.
	speechStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	// Interjections — soft mint, visually distinct from prompted speech.
	interjectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	heardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))
)

const banner = `
   ██████╗ ██████╗ ██████╗  █████╗
  ██╔════╝██╔═══██╗██╔══██╗██╔══██╗
  ██║     ██║   ██║██████╔╝███████║
  ██║     ██║   ██║██╔══██╗██╔══██║
  ╚██████╗╚██████╔╝██║  ██║██║  ██║
   ╚═════╝ ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝
        speech coordination daemon
`

// Console is the status window writer. Safe default is New(os.Stdout).
type Console struct {
	w io.Writer
}

// New creates a console writing to w.
func New(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// Banner prints the startup banner.
func (c *Console) Banner() {
	fmt.Fprintln(c.w, bannerStyle.Render(banner))
}

// Speech shows a prompted utterance as it plays.
func (c *Console) Speech(text string) {
	fmt.Fprintf(c.w, "%s %s\n", labelStyle.Render("says"), speechStyle.Render(text))
}

// Interjection shows an unprompted utterance and why it fired.
func (c *Console) Interjection(ev ambient.Event) {
	fmt.Fprintf(c.w, "%s %s %s\n",
		labelStyle.Render("interjects"),
		interjectStyle.Render(string(ev.Reason)),
		heardStyle.Render(ev.Hint))
}

// Heard echoes accepted user input.
func (c *Console) Heard(text string) {
	fmt.Fprintf(c.w, "%s %s\n", labelStyle.Render("heard"), heardStyle.Render(text))
}

// Alert prints an urgent operator-facing line.
func (c *Console) Alert(text string) {
	fmt.Fprintln(c.w, urgentStyle.Render(text))
}

// Mood prints the current mood snapshot.
func (c *Console) Mood(snap mood.Snapshot) {
	fmt.Fprintf(c.w, "%s %s  h=%+.2f p=%+.2f e=%+.2f eng=%+.2f\n",
		labelStyle.Render("mood"),
		interjectStyle.Render(string(snap.Mood)),
		snap.Happiness, snap.Patience, snap.Energy, snap.Engagement)
}

// Status prints the scheduler and echo suppressor diagnostics.
func (c *Console) Status(amb ambient.Status, echo speech.EchoStatus, pending int, holder string) {
	fmt.Fprintf(c.w, "%s friend=%.2f activity=%s busy=%v interjections=%d silence=%s\n",
		labelStyle.Render("ambient"),
		amb.FriendThreshold, amb.UserActivity, amb.UserBusy,
		amb.InterjectionCount, amb.SilenceDuration.Round(time.Second))
	fmt.Fprintf(c.w, "%s speaking=%v clears_in=%s history=%d blacklist=%d\n",
		labelStyle.Render("echo"),
		echo.Speaking, echo.TimeRemaining.Round(time.Millisecond),
		echo.HistoryCount, echo.BlacklistCount)
	fmt.Fprintf(c.w, "%s pending=%d", labelStyle.Render("queue"), pending)
	if holder != "" {
		fmt.Fprintf(c.w, " lock_held_by=%s", holder)
	}
	fmt.Fprintln(c.w)
}
