package terminal

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PayloadMediaType is the content type of a typed server payload. `get -e`
// asks for it in the Accept header.
const PayloadMediaType = "application/vnd.evalterm.payload+json"

const (
	PayloadText   = "text"
	PayloadAction = "action"
)

// Payload is a server response the terminal can interpret. A "text" payload
// is printed; an "action" payload names one of a fixed set of display
// operations.
type Payload struct {
	Type   string   `json:"type"`
	Text   string   `json:"text,omitempty"`
	Action string   `json:"action,omitempty"`
	Args   []string `json:"args,omitempty"`
}

// TextPayload returns a payload that displays text.
func TextPayload(text string) Payload {
	return Payload{Type: PayloadText, Text: text}
}

// ActionPayload returns a payload that runs action with args.
func ActionPayload(action string, args ...string) Payload {
	return Payload{Type: PayloadAction, Action: action, Args: args}
}

// ParsePayload decodes body. ok is false when body is not a payload, in
// which case the caller shows it verbatim.
func ParsePayload(body string) (p Payload, ok bool) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return Payload{}, false
	}
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return Payload{}, false
	}
	switch p.Type {
	case PayloadText, PayloadAction:
		return p, true
	default:
		return Payload{}, false
	}
}

// Action is a display operation a payload may request.
type Action func(d Display, args []string) error

var actions = map[string]Action{
	"write": func(d Display, args []string) error {
		d.Write(strings.Join(args, "\n"))
		return nil
	},
	"type": func(d Display, args []string) error {
		d.Type(strings.Join(args, " "))
		return nil
	},
	"newline": func(d Display, args []string) error {
		d.NewLine()
		return nil
	},
	"clear": func(d Display, args []string) error {
		d.Clear()
		return nil
	},
	"help": func(d Display, args []string) error {
		d.Clear()
		d.Write(BannerText())
		return nil
	},
}

// Apply runs p against d.
func (p Payload) Apply(d Display) error {
	switch p.Type {
	case PayloadText:
		d.Write(p.Text)
		return nil
	case PayloadAction:
		fn, ok := actions[p.Action]
		if !ok {
			return fmt.Errorf("unknown action %q", p.Action)
		}
		return fn(d, p.Args)
	default:
		return fmt.Errorf("unknown payload type %q", p.Type)
	}
}
