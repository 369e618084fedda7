package main

import (
	"github.com/sidkik/syncdroid/cmd"
	"github.com/sidkik/syncdroid/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
