// Command burstsim runs the burst scheduler against an ideal memory.
package main

import "github.com/sarchlab/portsched/burstsim/cmd"

func main() {
	cmd.Execute()
}
