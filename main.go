/*
Copyright © 2026 Paulo Suderio
*/
package main

import "github.com/suderio/dreamland/cmd"

func main() {
	cmd.Execute()
}
