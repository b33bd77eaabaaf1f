package main

import (
	"github.com/xkilldash9x/tradelens/cmd"
)

func main() {
	cmd.Execute()
}
