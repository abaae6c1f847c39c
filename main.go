package main

import "github.com/frahmantamala/leave-management/cmd"

func main() {
	cmd.Execute()
}
