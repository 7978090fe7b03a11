package main

import "github.com/oshokin/commute-alarm/cmd/commute-alarmctl/cmd"

func main() {
	cmd.Execute()
}
