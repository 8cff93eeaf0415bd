package main

import "github.com/jrsteele09/go-oauth-broker/cmd/server/cmd"

func main() {
	cmd.Execute()
}
