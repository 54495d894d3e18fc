package main

import (
	"example.com/backstage/services/ledger/cmd"
)

func main() {
	cmd.Execute()
}
