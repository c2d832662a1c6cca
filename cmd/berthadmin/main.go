package main

import "github.com/smarttransit/berth-allocator/cmd/berthadmin/command"

func main() {
	command.Execute()
}
