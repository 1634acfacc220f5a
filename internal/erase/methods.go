package erase

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	dod7Passes    = 7
	gutmannPasses = 35
)

// ProtocolInfo describes a protocol for listings.
type ProtocolInfo struct {
	Protocol    Protocol
	Name        string
	Description string
}

var protocolInfo = []ProtocolInfo{
	{RandomSingle, "random", "single pass of cryptographically random data (default)"},
	{Zeros, "zeros", "single pass of 0x00"},
	{Ones, "ones", "single pass of 0xFF"},
	{DoD7, "dod7", "DoD 5220.22-M ECE, 7 passes: zero/one x3, random"},
	{Gutmann35, "gutmann", "Gutmann, 35 passes: 4 random, alternating zero/one, 4 random, zero/one"},
	{None, "none", "no overwrite, delete only"},
}

var protocolAliases = map[string]Protocol{
	"zero":      Zeros,
	"one":       Ones,
	"dod":       DoD7,
	"gutmann35": Gutmann35,
}

func (p Protocol) String() string {
	for _, info := range protocolInfo {
		if info.Protocol == p {
			return info.Name
		}
	}
	return fmt.Sprintf("protocol(%d)", int(p))
}

// PassCount returns the number of overwrite passes of the protocol.
func (p Protocol) PassCount() int {
	switch p {
	case Zeros, Ones, RandomSingle:
		return 1
	case DoD7:
		return dod7Passes
	case Gutmann35:
		return gutmannPasses
	default:
		return 0
	}
}

// ParseProtocol maps a CLI/config name onto a Protocol. An empty name selects
// RandomSingle.
func ParseProtocol(name string) (Protocol, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return RandomSingle, nil
	}
	for _, info := range protocolInfo {
		if info.Name == name {
			return info.Protocol, nil
		}
	}
	if p, ok := protocolAliases[name]; ok {
		return p, nil
	}
	return RandomSingle, fmt.Errorf("unsupported erase protocol: %s", name)
}

// Protocols lists every protocol in display order.
func Protocols() []ProtocolInfo {
	out := make([]ProtocolInfo, len(protocolInfo))
	copy(out, protocolInfo)
	return out
}

// PatternFor returns the pattern of pass index for the protocol. The mapping is
// fixed; it never depends on the file.
func PatternFor(p Protocol, index int) (PatternKind, error) {
	if index < 0 || index >= p.PassCount() {
		return Zero, fmt.Errorf("pass %d out of range for protocol %s", index, p)
	}

	switch p {
	case Zeros:
		return Zero, nil
	case Ones:
		return One, nil
	case RandomSingle:
		return Random, nil
	case DoD7:
		if index == dod7Passes-1 {
			return Random, nil
		}
		return parityPattern(index), nil
	case Gutmann35:
		// 0-3 and 27-30 random, everything else alternates by parity
		if index <= 3 || (index >= 27 && index <= 30) {
			return Random, nil
		}
		return parityPattern(index), nil
	default:
		return Zero, fmt.Errorf("protocol %s has no passes", p)
	}
}

func parityPattern(index int) PatternKind {
	if index%2 == 0 {
		return Zero
	}
	return One
}

// Passes returns the ordered pass sequence of the protocol.
func Passes(p Protocol) []Pass {
	n := p.PassCount()
	passes := make([]Pass, 0, n)
	for i := 0; i < n; i++ {
		kind, _ := PatternFor(p, i)
		passes = append(passes, Pass{Index: i, Kind: kind})
	}
	return passes
}

// FillPattern fills buf with the pattern bytes. Random data comes from
// crypto/rand.
func FillPattern(kind PatternKind, buf []byte) error {
	switch kind {
	case Zero:
		fillByte(buf, 0x00)
		return nil
	case One:
		fillByte(buf, 0xFF)
		return nil
	case Random:
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("random data generation failed: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown pattern kind: %d", kind)
	}
}

func fillByte(buf []byte, b byte) {
	for i := range buf {
		buf[i] = b
	}
}
