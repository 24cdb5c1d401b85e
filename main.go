// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/prism-cli/prism/cmd/prism"

func main() {
	cmd.Execute()
}
