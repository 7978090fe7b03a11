package main

import "github.com/oshokin/commute-alarm/cmd/commute-alarmd/cmd"

func main() {
	cmd.Execute()
}
