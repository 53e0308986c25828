package hotkey

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

var ErrNoKeys = errors.New("hotkey has no usable keys")

type key struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// Combo tracks the pressed state of every key in a hotkey combination.
// It is safe for concurrent use.
type Combo struct {
	mu   sync.Mutex
	text string
	keys []key
}

// Parse builds a Combo from a string like "Alt+Shift+3". Unknown keys are
// skipped with a warning; a combo without any known key is an error.
func Parse(text string) (*Combo, error) {
	c := &Combo{text: text}
	for _, name := range parseHotkey(text) {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			log.Printf("ERROR: Cannot map key '%s' to rawcodes, hotkey may not work correctly", name)
			continue
		}
		c.keys = append(c.keys, key{name: name, rawcodes: codes})
	}
	if len(c.keys) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoKeys, text)
	}
	return c, nil
}

func (c *Combo) String() string { return c.text }

// Press records a key down. It reports true when the whole combination is
// held, and then clears the state so holding the keys fires only once.
func (c *Combo) Press(rawcode uint16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(rawcode, true)
	for i := range c.keys {
		if !c.keys[i].pressed {
			return false
		}
	}
	for i := range c.keys {
		c.keys[i].pressed = false
	}
	return true
}

// Release records a key up.
func (c *Combo) Release(rawcode uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(rawcode, false)
}

func (c *Combo) set(rawcode uint16, pressed bool) {
	for i := range c.keys {
		for _, rc := range c.keys[i].rawcodes {
			if rc == rawcode {
				c.keys[i].pressed = pressed
				break
			}
		}
	}
}

// Listen registers the global hotkey and calls callback each time it is
// pressed. The hook runs on its own goroutine; callback must not block.
func Listen(hotkeyConfig string, callback func()) {
	combo, err := Parse(hotkeyConfig)
	if err != nil {
		log.Printf("ERROR: %v", err)
		return
	}
	log.Printf("Hotkey listener configured for: %s", combo)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}
		defer gohook.End()

		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				if combo.Press(ev.Rawcode) {
					log.Printf("Hotkey %s activated", combo)
					if callback != nil {
						callback()
					}
				}
			case gohook.KeyUp:
				combo.Release(ev.Rawcode)
			}
		}
		log.Printf("Event channel closed")
	}()
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			keys = append(keys, "ctrl")
		case "option":
			keys = append(keys, "alt")
		case "win", "cmd", "super", "meta":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

// Windows virtual key codes, which gohook reports as rawcodes.
var specialKeys = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},

	"printscreen": {44},
	"prtsc":       {44},
}

// keyNameToRawcodes maps a key name to its rawcodes (both sides for modifiers).
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if codes, ok := specialKeys[keyName]; ok {
		return codes
	}
	if len(keyName) == 1 {
		switch ch := keyName[0]; {
		case ch >= 'a' && ch <= 'z':
			return []uint16{uint16(ch-'a') + 65}
		case ch >= '0' && ch <= '9':
			return []uint16{uint16(ch-'0') + 48}
		}
	}
	var n int
	if _, err := fmt.Sscanf(keyName, "f%d", &n); err == nil && n >= 1 && n <= 24 && keyName == fmt.Sprintf("f%d", n) {
		return []uint16{uint16(111 + n)} // VK_F1 is 112
	}
	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", keyName)
	return nil
}
