// wellkernel simulates the core of an L4-family microkernel for
// ARM Cortex-M class microcontrollers: threads, synchronous IPC,
// notifications, capability-addressed kernel objects, sporadic
// scheduling, and MPU-backed memory protection, driven by a
// host-clock tick source in place of real Cortex-M hardware.
//
// Commands:
//
//	boot    - print the default boot configuration
//	state   - boot the kernel from a configuration and dump its state
//	version - print build version information
package main

import (
	"fmt"
	"os"

	"wellkernel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wellkernel:", err)
		os.Exit(1)
	}
}
