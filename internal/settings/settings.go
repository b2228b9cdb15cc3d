// Package settings stores the user's accelerator bindings and workspace
// labels in a YAML file.
//
// Each workspace slot 1..10 has a key "overlay-workspace-N" holding a list
// of accelerator strings. Only the first entry is used. An empty list
// disables the slot. A missing key falls back to the default binding.
package settings

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/wsoverlay/internal/fsops"
	"github.com/danieljhkim/wsoverlay/internal/keys"
)

// Slots is the number of workspaces that can be bound.
const Slots = 10

// ErrInvalidSlot indicates a workspace number outside 1..Slots.
var ErrInvalidSlot = errors.New("invalid workspace slot")

// Key returns the settings key of a workspace number.
func Key(number int) string {
	return fmt.Sprintf("overlay-workspace-%d", number)
}

// Settings is the content of settings.yaml.
type Settings struct {
	// Bindings maps "overlay-workspace-N" to accelerator strings.
	Bindings map[string][]string `yaml:"bindings"`

	// Labels maps workspace numbers to display labels.
	Labels map[int]string `yaml:"labels,omitempty"`
}

// Default returns settings with the default binding for every slot.
func Default() *Settings {
	s := &Settings{
		Bindings: make(map[string][]string, Slots),
		Labels:   make(map[int]string),
	}
	for n := 1; n <= Slots; n++ {
		s.Bindings[Key(n)] = []string{keys.Default(n)}
	}
	return s
}

// Accelerator returns the effective accelerator of a slot, or "" if the
// slot is disabled.
func (s *Settings) Accelerator(number int) string {
	list, ok := s.Bindings[Key(number)]
	if !ok {
		return keys.Default(number)
	}
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

// SetAccelerator validates and stores the accelerator of a slot in
// canonical form.
func (s *Settings) SetAccelerator(number int, accel string) error {
	if err := checkSlot(number); err != nil {
		return err
	}
	acc, err := keys.Parse(accel)
	if err != nil {
		return err
	}
	if s.Bindings == nil {
		s.Bindings = make(map[string][]string)
	}
	s.Bindings[Key(number)] = []string{acc.String()}
	return nil
}

// Clear disables the binding of a slot.
func (s *Settings) Clear(number int) error {
	if err := checkSlot(number); err != nil {
		return err
	}
	if s.Bindings == nil {
		s.Bindings = make(map[string][]string)
	}
	s.Bindings[Key(number)] = []string{}
	return nil
}

// SetLabel sets or, with an empty label, removes a workspace label.
func (s *Settings) SetLabel(number int, label string) error {
	if number < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, number)
	}
	if s.Labels == nil {
		s.Labels = make(map[int]string)
	}
	if label == "" {
		delete(s.Labels, number)
		return nil
	}
	s.Labels[number] = label
	return nil
}

// ParsedBindings returns the enabled bindings in slot order.
func (s *Settings) ParsedBindings() ([]keys.Binding, error) {
	var out []keys.Binding
	for n := 1; n <= Slots; n++ {
		accel := s.Accelerator(n)
		if accel == "" {
			continue
		}
		acc, err := keys.Parse(accel)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", Key(n), err)
		}
		out = append(out, keys.Binding{Number: n, Accelerator: acc})
	}
	return out, nil
}

// Validate checks that every key is a known slot and every accelerator
// parses.
func (s *Settings) Validate() error {
	known := make(map[string]bool, Slots)
	for n := 1; n <= Slots; n++ {
		known[Key(n)] = true
	}

	names := make([]string, 0, len(s.Bindings))
	for name := range s.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !known[name] {
			return fmt.Errorf("unknown settings key %q", name)
		}
	}

	if _, err := s.ParsedBindings(); err != nil {
		return err
	}
	for n := range s.Labels {
		if n < 1 {
			return fmt.Errorf("label for %w: %d", ErrInvalidSlot, n)
		}
	}
	return nil
}

func checkSlot(number int) error {
	if number < 1 || number > Slots {
		return fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidSlot, number, Slots)
	}
	return nil
}

// Store loads and saves settings.yaml.
type Store struct {
	fs   fsops.FS
	path string
}

// NewStore creates a Store for the settings file at path.
func NewStore(fs fsops.FS, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the settings file path.
func (st *Store) Path() string {
	return st.path
}

// Load reads the settings file. A missing file yields Default().
func (st *Store) Load() (*Settings, error) {
	data, err := st.fs.ReadFile(st.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	s := &Settings{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", st.path, err)
	}
	if s.Bindings == nil {
		s.Bindings = make(map[string][]string)
	}
	if s.Labels == nil {
		s.Labels = make(map[int]string)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", st.path, err)
	}
	return s, nil
}

// Save writes the settings file atomically.
func (st *Store) Save(s *Settings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid settings: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := st.fs.AtomicWrite(st.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
