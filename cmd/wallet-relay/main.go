package main

import (
	"github.com/dualsig/wallet-relay/cmd/wallet-relay/cmd"
)

func main() {
	cmd.Execute()
}
