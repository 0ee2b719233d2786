package gmns2graph

import (
	"sort"

	"github.com/pkg/errors"
)

// Mode describes a single travel mode. The code is the one-character
// identifier carried by every link's modes string.
type Mode struct {
	Code        byte
	Name        string
	Description string
}

// Modes is the append-only mode catalog of one network. Entries are created
// lazily during import and never deleted. Not safe for concurrent writers;
// a network instance assumes a single importer at a time.
type Modes struct {
	byCode map[byte]Mode
}

// NewModes returns an empty mode catalog
func NewModes() *Modes {
	return &Modes{
		byCode: make(map[byte]Mode),
	}
}

// Contains reports whether the given mode code is registered
func (m *Modes) Contains(code byte) bool {
	_, ok := m.byCode[code]
	return ok
}

// Add registers a new mode. Registering an already taken code is an error.
func (m *Modes) Add(mode Mode) error {
	if _, ok := m.byCode[mode.Code]; ok {
		return errors.Errorf("mode code '%c' is already in use", mode.Code)
	}
	m.byCode[mode.Code] = mode
	return nil
}

// Codes returns every registered mode code sorted in ascending byte order
func (m *Modes) Codes() []byte {
	codes := make([]byte, 0, len(m.byCode))
	for code := range m.byCode {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// All returns every registered mode sorted by code
func (m *Modes) All() []Mode {
	all := make([]Mode, 0, len(m.byCode))
	for _, code := range m.Codes() {
		all = append(all, m.byCode[code])
	}
	return all
}

// Get returns the mode registered under the given code
func (m *Modes) Get(code byte) (Mode, bool) {
	mode, ok := m.byCode[code]
	return mode, ok
}
