package browser

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod/lib/input"
)

var namedKeys = map[string]input.Key{
	"Enter":      input.Enter,
	"Tab":        input.Tab,
	"Escape":     input.Escape,
	"Backspace":  input.Backspace,
	"Delete":     input.Delete,
	"Insert":     input.Insert,
	"ArrowUp":    input.ArrowUp,
	"ArrowDown":  input.ArrowDown,
	"ArrowLeft":  input.ArrowLeft,
	"ArrowRight": input.ArrowRight,
	"Home":       input.Home,
	"End":        input.End,
	"PageUp":     input.PageUp,
	"PageDown":   input.PageDown,
	"Space":      input.Space,
}

var modifierKeys = map[string]input.Key{
	"Shift":   input.ShiftLeft,
	"Control": input.ControlLeft,
	"Alt":     input.AltLeft,
	"Meta":    input.MetaLeft,
}

// parseKeyCombo splits a Playwright-style key such as "Shift+Enter" into
// its held modifiers and the final key.
func parseKeyCombo(combo string) ([]input.Key, input.Key, error) {
	if combo == "" {
		return nil, 0, fmt.Errorf("empty key")
	}

	parts := strings.Split(combo, "+")
	// "+" itself, or a combo ending in "+", names the plus key
	if strings.HasSuffix(combo, "++") || combo == "+" {
		parts = append(strings.Split(strings.TrimSuffix(combo, "++"), "+"), "+")
		if combo == "+" {
			parts = []string{"+"}
		}
	}

	var mods []input.Key
	for _, name := range parts[:len(parts)-1] {
		mod, ok := modifierKeys[name]
		if !ok {
			return nil, 0, fmt.Errorf("unknown modifier %q", name)
		}
		mods = append(mods, mod)
	}

	key, err := lookupKey(parts[len(parts)-1])
	if err != nil {
		return nil, 0, err
	}
	return mods, key, nil
}

func lookupKey(name string) (input.Key, error) {
	if k, ok := namedKeys[name]; ok {
		return k, nil
	}
	if k, ok := modifierKeys[name]; ok {
		return k, nil
	}
	if len(name) == 1 && name[0] >= 0x20 && name[0] <= 0x7e {
		return input.Key(name[0]), nil
	}
	return 0, fmt.Errorf("unknown key %q", name)
}
