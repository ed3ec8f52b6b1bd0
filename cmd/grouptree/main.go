// Command grouptree manages a folder and album hierarchy from the terminal.
package main

import "github.com/mesh-intelligence/grouptree/internal/cli"

func main() {
	cli.Execute()
}
