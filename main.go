package main

import (
	"os"

	"github.com/LilVoxy/northwind_dw/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
