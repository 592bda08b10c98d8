// ./main.go
package main

import (
	"github.com/xkilldash9x/scriptlens/cmd"
)

// main is the entry point for the ScriptLens CLI application.
func main() {
	cmd.Execute()
}
