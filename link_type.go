package gmns2graph

import (
	"sort"

	"github.com/pkg/errors"
)

const asciiLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ErrAlphabetExhausted is returned when every letter of the allocation
// alphabet is already bound to a link type.
var ErrAlphabetExhausted = errors.New("all letters are currently in use")

// LinkType binds a one-character code to the full functional class name it
// abbreviates (e.g. 'a' -> "Arterial").
type LinkType struct {
	Code     byte
	LinkType string
}

// LinkTypes is the append-only link type catalog of one network. It owns
// code allocation: FindOrAllocate is the only way new codes appear, so a
// lookup and the subsequent registration cannot interleave with another
// allocation for the same catalog. Single writer assumed.
type LinkTypes struct {
	byCode map[byte]LinkType
	byName map[string]byte
}

// NewLinkTypes returns an empty link type catalog
func NewLinkTypes() *LinkTypes {
	return &LinkTypes{
		byCode: make(map[byte]LinkType),
		byName: make(map[string]byte),
	}
}

// Contains reports whether the given link type code is registered
func (lt *LinkTypes) Contains(code byte) bool {
	_, ok := lt.byCode[code]
	return ok
}

// FindOrAllocate returns the code already bound to rawName, or binds a new
// one. Candidate codes are tried in order: each character of the name
// lower-cased then upper-cased, then the first free letter of the ASCII
// alphabet. Returns ErrAlphabetExhausted when no candidate is left.
func (lt *LinkTypes) FindOrAllocate(rawName string) (byte, error) {
	if code, ok := lt.byName[rawName]; ok {
		return code, nil
	}
	for i := 0; i < len(rawName); i++ {
		c := rawName[i]
		if lower := toLowerASCII(c); !lt.Contains(lower) {
			lt.register(lower, rawName)
			return lower, nil
		}
		if upper := toUpperASCII(c); !lt.Contains(upper) {
			lt.register(upper, rawName)
			return upper, nil
		}
	}
	for i := 0; i < len(asciiLetters); i++ {
		if c := asciiLetters[i]; !lt.Contains(c) {
			lt.register(c, rawName)
			return c, nil
		}
	}
	return 0, errors.Wrapf(ErrAlphabetExhausted, "can not allocate code for link type '%s'", rawName)
}

func (lt *LinkTypes) register(code byte, rawName string) {
	lt.byCode[code] = LinkType{Code: code, LinkType: rawName}
	lt.byName[rawName] = code
}

// Codes returns every registered link type code sorted in ascending byte order
func (lt *LinkTypes) Codes() []byte {
	codes := make([]byte, 0, len(lt.byCode))
	for code := range lt.byCode {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// All returns every registered link type sorted by code
func (lt *LinkTypes) All() []LinkType {
	all := make([]LinkType, 0, len(lt.byCode))
	for _, code := range lt.Codes() {
		all = append(all, lt.byCode[code])
	}
	return all
}

// Get returns the link type registered under the given code
func (lt *LinkTypes) Get(code byte) (LinkType, bool) {
	t, ok := lt.byCode[code]
	return t, ok
}

func toLowerASCII(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func toUpperASCII(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
