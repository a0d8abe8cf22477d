// Package main provides a minimal stub entry point for ooriscv.
// ooriscv is a cycle-accurate out-of-order RISC-V subset simulator.
//
// For the full CLI, use: go run ./cmd/ooriscv
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("ooriscv - Out-of-Order RISC-V Subset Simulator")
	fmt.Println("")
	fmt.Println("Usage: ooriscv [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config       Path to a YAML simulator configuration file")
	fmt.Println("  -raw          Treat the program as a flat binary rather than an ELF file")
	fmt.Println("  -reference    Run the single-issue reference interpreter instead")
	fmt.Println("  -riscv-test   Use the riscv-tests exit-code convention")
	fmt.Println("  -v            Verbose per-stage trace output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/ooriscv' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/ooriscv' instead.")
	}
}
