package terminal

import (
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

// Display is the terminal widget a session draws into. Implementations must
// be safe for concurrent use: request callbacks write from their own
// goroutines.
type Display interface {
	Write(text string)
	Type(text string)
	NewLine()
	Clear()
	Prompt()
}

const clearScreen = "\033[H\033[2J"

// Console is a Display backed by a readline instance. Output written while
// a line is being edited is printed above the prompt.
type Console struct {
	mu        sync.Mutex
	rl        *readline.Instance
	w         io.Writer
	lineStart bool
}

func NewConsole(rl *readline.Instance) *Console {
	return &Console{rl: rl, w: rl.Stdout(), lineStart: true}
}

func (c *Console) Write(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.write(text)
}

func (c *Console) Type(text string) {
	c.Write(text)
}

// NewLine ends the current line. It does nothing at the start of a line, as
// readline has already moved past the submitted input.
func (c *Console) NewLine() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lineStart {
		c.write("\n")
	}
}

func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.write(clearScreen)
	c.lineStart = true
}

func (c *Console) Prompt() {
	c.mu.Lock()
	if !c.lineStart {
		c.write("\n")
	}
	c.mu.Unlock()
	c.rl.Refresh()
}

func (c *Console) write(text string) {
	if text == "" {
		return
	}
	io.WriteString(c.w, text)
	c.lineStart = strings.HasSuffix(text, "\n")
}

// TextDisplay is a Display that renders into a plain writer, with prompt
// as the prompt text. It suits pipes and non-interactive use.
type TextDisplay struct {
	mu        sync.Mutex
	w         io.Writer
	prompt    string
	lineStart bool
}

func NewTextDisplay(w io.Writer, prompt string) *TextDisplay {
	return &TextDisplay{w: w, prompt: prompt, lineStart: true}
}

func (d *TextDisplay) Write(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.write(text)
}

func (d *TextDisplay) Type(text string) {
	d.Write(text)
}

func (d *TextDisplay) NewLine() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.write("\n")
}

func (d *TextDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.write(clearScreen)
	d.lineStart = true
}

func (d *TextDisplay) Prompt() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.lineStart {
		d.write("\n")
	}
	d.write(d.prompt)
}

func (d *TextDisplay) write(text string) {
	if text == "" {
		return
	}
	io.WriteString(d.w, text)
	d.lineStart = strings.HasSuffix(text, "\n")
}
