package main

import (
	"github.com/luma/redwire/cmd"
)

func main() {
	cmd.Execute()
}
