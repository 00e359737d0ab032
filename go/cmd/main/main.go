package main

import (
	"github.com/lunixbochs/sh2corn/go/cmd"

	_ "github.com/lunixbochs/sh2corn/go/cmd/run"

	_ "github.com/lunixbochs/sh2corn/go/cmd/monitor"
	_ "github.com/lunixbochs/sh2corn/go/cmd/trace"
)

func main() { cmd.Main() }
