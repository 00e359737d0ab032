package models

import (
	"fmt"
	"io"
	"os"

	"github.com/mgutz/ansi"
	"github.com/pkg/errors"
)

const (
	DefaultMaxBlockLen      = 64
	DefaultPromoteThreshold = 0xff
	DefaultPollLimit        = 3
	DefaultSlice            = 64
)

type Config struct {
	Color   bool
	Verbose bool
	Output  io.Writer

	// longest block the builder will decode, in instructions
	MaxBlockLen int
	// hit count at which a block is compiled, must be 2^k-1. 0 disables tier 2.
	PromoteThreshold uint32
	// classify hot blocks as polls / busy loops
	PollDetect bool
	// stable re-entries needed before a poll is handed to the scheduler
	PollLimit int
	// TAS.B goes through the cache-through mirror
	TASBypass bool
	// cycles each core runs before the scheduler switches
	Slice int

	LoopCollapse int
	SavePost     string
}

func NewConfig() *Config {
	return &Config{
		Output:           os.Stderr,
		MaxBlockLen:      DefaultMaxBlockLen,
		PromoteThreshold: DefaultPromoteThreshold,
		PollDetect:       true,
		PollLimit:        DefaultPollLimit,
		Slice:            DefaultSlice,
	}
}

func (c *Config) Validate() error {
	if c.MaxBlockLen < 2 {
		// a delayed branch and its slot must fit
		return errors.Errorf("max block length too small: %d", c.MaxBlockLen)
	}
	if t := c.PromoteThreshold; t&(t+1) != 0 {
		return errors.Errorf("promote threshold must be 2^k-1: %#x", t)
	}
	if c.PollLimit < 1 {
		return errors.Errorf("poll limit must be positive: %d", c.PollLimit)
	}
	if c.Slice < 1 {
		return errors.Errorf("scheduler slice must be positive: %d", c.Slice)
	}
	return nil
}

func (c *Config) out() io.Writer {
	if c.Output == nil {
		return os.Stderr
	}
	return c.Output
}

func (c *Config) Printf(format string, a ...interface{}) {
	fmt.Fprintf(c.out(), format, a...)
}

// Debugf only prints with Verbose set.
func (c *Config) Debugf(format string, a ...interface{}) {
	if c.Verbose {
		fmt.Fprintf(c.out(), format, a...)
	}
}

var warnColor = ansi.ColorCode("yellow+b")
var errColor = ansi.ColorCode("red+b")

func (c *Config) prefixed(prefix, color, format string, a ...interface{}) {
	if c.Color {
		prefix = color + prefix + ansi.Reset
	}
	fmt.Fprintf(c.out(), prefix+": "+format, a...)
}

func (c *Config) Warnf(format string, a ...interface{}) {
	c.prefixed("warning", warnColor, format, a...)
}

func (c *Config) Errorf(format string, a ...interface{}) {
	c.prefixed("ERROR", errColor, format, a...)
}
