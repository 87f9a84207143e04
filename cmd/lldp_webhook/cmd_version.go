package main

import (
	"fmt"
	"runtime"
)

var Version = "0.1.0"

type VersionCmd struct {
	BuildInfo bool `help:"Print build information" default:"false"`
}

func (v *VersionCmd) Run(globals *Globals) error {
	fmt.Println("lldp-webhook", Version)
	if v.BuildInfo {
		fmt.Println("Built by:", runtime.Version())
	}
	return nil
}
