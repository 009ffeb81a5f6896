// The main package for the weblink-inspector executable.
package main

import (
	"github.com/JakeFAU/weblink-inspector/cmd"
)

func main() {
	cmd.Execute()
}
