/*
Copyright © 2025 The TaskTide Authors
*/
package main

import "github.com/tasktide/tasktide/cmd"

func main() {
	cmd.Execute()
}
