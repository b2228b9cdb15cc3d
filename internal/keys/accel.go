// Package keys parses GTK-style key accelerators such as "<Control><Super>3"
// and renders them for external hotkey daemons.
package keys

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidAccelerator indicates an accelerator string that cannot be parsed.
var ErrInvalidAccelerator = errors.New("invalid accelerator")

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	Shift Modifier = 1 << iota
	Control
	Alt
	Super
)

// modifierOrder is the canonical output order.
var modifierOrder = []Modifier{Control, Shift, Alt, Super}

var modifierNames = map[string]Modifier{
	"shift":   Shift,
	"control": Control,
	"ctrl":    Control,
	"primary": Control,
	"alt":     Alt,
	"mod1":    Alt,
	"super":   Super,
	"mod4":    Super,
	"meta":    Super,
}

var gtkNames = map[Modifier]string{
	Shift:   "<Shift>",
	Control: "<Control>",
	Alt:     "<Alt>",
	Super:   "<Super>",
}

var sxhkdNames = map[Modifier]string{
	Shift:   "shift",
	Control: "ctrl",
	Alt:     "alt",
	Super:   "super",
}

// Accelerator is a key combined with modifiers.
type Accelerator struct {
	Mods Modifier
	Key  string
}

// Parse parses a GTK accelerator string. Modifier names are case
// insensitive.
func Parse(s string) (Accelerator, error) {
	rest := strings.TrimSpace(s)
	var acc Accelerator

	for strings.HasPrefix(rest, "<") {
		end := strings.Index(rest, ">")
		if end < 0 {
			return Accelerator{}, fmt.Errorf("%w %q: unterminated modifier", ErrInvalidAccelerator, s)
		}
		name := strings.ToLower(rest[1:end])
		mod, ok := modifierNames[name]
		if !ok {
			return Accelerator{}, fmt.Errorf("%w %q: unknown modifier %q", ErrInvalidAccelerator, s, rest[1:end])
		}
		acc.Mods |= mod
		rest = rest[end+1:]
	}

	if rest == "" {
		return Accelerator{}, fmt.Errorf("%w %q: missing key", ErrInvalidAccelerator, s)
	}
	if strings.ContainsAny(rest, "<> \t") {
		return Accelerator{}, fmt.Errorf("%w %q: bad key %q", ErrInvalidAccelerator, s, rest)
	}
	acc.Key = rest
	return acc, nil
}

// String renders the accelerator in canonical GTK form.
func (a Accelerator) String() string {
	var b strings.Builder
	for _, m := range modifierOrder {
		if a.Mods&m != 0 {
			b.WriteString(gtkNames[m])
		}
	}
	b.WriteString(a.Key)
	return b.String()
}

// Sxhkd renders the accelerator as an sxhkd hotkey line, e.g.
// "ctrl + super + 3".
func (a Accelerator) Sxhkd() string {
	parts := make([]string, 0, 5)
	for _, m := range modifierOrder {
		if a.Mods&m != 0 {
			parts = append(parts, sxhkdNames[m])
		}
	}
	key := a.Key
	if len(key) == 1 {
		key = strings.ToLower(key)
	}
	return strings.Join(append(parts, key), " + ")
}

// Default returns the default accelerator of a workspace number:
// Control+Super plus the number's last digit.
func Default(number int) string {
	return fmt.Sprintf("<Control><Super>%d", number%10)
}

// Binding ties an accelerator to a workspace number.
type Binding struct {
	Number      int
	Accelerator Accelerator
}

// ExportSxhkd renders bindings as an sxhkdrc fragment that runs
// "<command> toggle N" for each workspace number.
func ExportSxhkd(bindings []Binding, command string) string {
	sorted := append([]Binding(nil), bindings...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	var b strings.Builder
	b.WriteString("# Generated by wsoverlay. Include from sxhkdrc.\n")
	for _, binding := range sorted {
		fmt.Fprintf(&b, "\n# overlay workspace %d\n%s\n\t%s toggle %d\n",
			binding.Number, binding.Accelerator.Sxhkd(), command, binding.Number)
	}
	return b.String()
}
