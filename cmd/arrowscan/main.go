package main

import (
	"github.com/arrowscan/arrowscan/cmd"
)

func main() {
	cmd.Execute()
}
