package main

import (
	"github.com/loft-sh/amplitude/cmd"
)

func main() {
	cmd.Execute()
}
