package models

import (
	"encoding/hex"
	"fmt"
	"strings"
)

func printable(p []byte) string {
	o := make([]byte, len(p))
	for i, c := range p {
		if c >= 0x20 && c <= 0x7e {
			o[i] = c
		} else {
			o[i] = '.'
		}
	}
	return string(o)
}

// HexDump formats mem as lines of four big-endian longs with an ASCII tail.
func HexDump(base uint32, mem []byte) []string {
	const word, perLine = 4, 4
	var out []string
	for i := 0; i < len(mem); i += word * perLine {
		line := mem[i:]
		if len(line) > word*perLine {
			line = line[:word*perLine]
		}
		words := make([]string, perLine)
		for j := range words {
			lo, hi := j*word, (j+1)*word
			switch {
			case lo >= len(line):
				words[j] = strings.Repeat(" ", word*2)
			case hi > len(line):
				words[j] = hex.EncodeToString(line[lo:]) + strings.Repeat("  ", hi-len(line))
			default:
				words[j] = hex.EncodeToString(line[lo:hi])
			}
		}
		out = append(out, fmt.Sprintf("%08x: %s [%-16s]", base+uint32(i), strings.Join(words, " "), printable(line)))
	}
	return out
}
