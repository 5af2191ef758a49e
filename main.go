package main

import "github.com/dayuer/slackbridge/cmd"

func main() {
	cmd.Execute()
}
