package main

import "github.com/helpdeskhq/helpdesk-portal/cmd"

func main() {
	cmd.Execute()
}
