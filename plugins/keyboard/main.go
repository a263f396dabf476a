// Package main provides the keyboard plugin. It turns a gesture action into a
// key press on the focused window: AppleScript on macOS, xdotool on Linux.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	json "github.com/goccy/go-json"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Label  string          `json:"label"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeyParams defines parameters for press and keystroke actions.
type KeyParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// macKeyCodes maps named keys to macOS virtual key codes. Single characters
// are typed with keystroke instead.
var macKeyCodes = map[string]int{
	"f5":        96,
	"esc":       53,
	"escape":    53,
	"right":     124,
	"left":      123,
	"up":        126,
	"down":      125,
	"space":     49,
	"return":    36,
	"enter":     36,
	"tab":       48,
	"pageup":    116,
	"pagedown":  121,
	"home":      115,
	"end":       119,
	"backspace": 51,
}

// xdotoolKeys maps named keys to X keysyms.
var xdotoolKeys = map[string]string{
	"f5":        "F5",
	"esc":       "Escape",
	"escape":    "Escape",
	"right":     "Right",
	"left":      "Left",
	"up":        "Up",
	"down":      "Down",
	"space":     "space",
	"return":    "Return",
	"enter":     "Return",
	"tab":       "Tab",
	"pageup":    "Prior",
	"pagedown":  "Next",
	"home":      "Home",
	"end":       "End",
	"backspace": "BackSpace",
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// xdotoolModifiers maps modifier names to xdotool key prefixes.
var xdotoolModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	switch req.Action {
	case "press", "keystroke":
		writeResponse(handlePress(req.Params))
	default:
		writeResponse(fmt.Errorf("unknown action: %s", req.Action))
	}
}

// handlePress validates the params and sends the key to the platform backend.
func handlePress(params json.RawMessage) error {
	var p KeyParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return fmt.Errorf("failed to parse params: %w", err)
		}
	}

	p.Key = strings.TrimSpace(p.Key)
	if p.Key == "" {
		return fmt.Errorf("key is required")
	}

	switch runtime.GOOS {
	case "darwin":
		return run("osascript", "-e", buildAppleScript(p.Key, p.Modifiers))
	case "linux":
		return run("xdotool", "key", "--clearmodifiers", buildXdotoolKey(p.Key, p.Modifiers))
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// buildAppleScript generates an AppleScript for the given key and modifiers.
func buildAppleScript(key string, modifiers []string) string {
	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	var cmd string
	if code, ok := macKeyCodes[strings.ToLower(key)]; ok {
		cmd = fmt.Sprintf(`tell application "System Events" to key code %d`, code)
	} else {
		cmd = fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}

	if len(appleModifiers) == 0 {
		return cmd
	}
	return fmt.Sprintf("%s using {%s}", cmd, strings.Join(appleModifiers, ", "))
}

// buildXdotoolKey returns the xdotool key chord, such as "ctrl+shift+Left".
func buildXdotoolKey(key string, modifiers []string) string {
	var parts []string
	for _, mod := range modifiers {
		if m, ok := xdotoolModifiers[strings.ToLower(mod)]; ok {
			parts = append(parts, m)
		}
	}

	if sym, ok := xdotoolKeys[strings.ToLower(key)]; ok {
		key = sym
	}
	return strings.Join(append(parts, key), "+")
}

// writeResponse writes the outcome of the action to stdout.
func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// run executes a command and folds its output into the error.
func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
