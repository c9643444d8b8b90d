package main

import "github.com/vkoehler/memtrace/cmd"

func main() {
	cmd.Execute()
}
