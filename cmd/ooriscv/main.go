// Package main provides the entry point for ooriscv.
// ooriscv is a cycle-accurate out-of-order RISC-V subset simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/smidthebest/ooriscv/config"
	"github.com/smidthebest/ooriscv/emu"
	"github.com/smidthebest/ooriscv/loader"
	"github.com/smidthebest/ooriscv/refmodel"
	"github.com/smidthebest/ooriscv/timing/pipeline"
)

var (
	configPath = flag.String("config", "", "Path to a YAML simulator configuration file")
	verbose    = flag.Bool("v", false, "Verbose per-stage trace output")
	raw        = flag.Bool("raw", false, "Treat the program as a flat binary rather than an ELF file")
	loadAddr   = flag.Uint64("load-addr", 0, "Load address for -raw binaries")
	riscvTest  = flag.Bool("riscv-test", false, "Use the riscv-tests exit-code convention (1-x3)")
	reference  = flag.Bool("reference", false, "Run the single-issue reference interpreter instead of the timed core")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: ooriscv [options] <program>\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	var prog *loader.Program
	if *raw {
		data, err := os.ReadFile(programPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading program: %v\n", err)
			os.Exit(1)
		}
		prog = loader.LoadRaw(data, uint32(*loadAddr))
	} else {
		var err error
		prog, err = loader.Load(programPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
			os.Exit(1)
		}
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%x\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	simCfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		simCfg, err = config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading simulator config: %v\n", err)
			os.Exit(1)
		}
	}
	if *riscvTest {
		simCfg.RiscvTest = true
	}

	var code int
	if *reference {
		code = runReference(prog, programPath)
	} else {
		code = runTimed(prog, programPath, simCfg)
	}
	os.Exit(code)
}

func runReference(prog *loader.Program, programPath string) int {
	mem := newMemoryForProgram(prog)
	loader.Apply(prog, mem)

	in := refmodel.NewInterpreter(mem, os.Stdout)
	in.SetPC(prog.EntryPoint)
	exitCode := in.Run()

	fmt.Printf("\nProgram: %s\n", programPath)
	fmt.Printf("Exit code: %d\n", exitCode)
	fmt.Printf("Instructions: %d\n", in.CycleCount())

	return int(exitCode)
}

func runTimed(prog *loader.Program, programPath string, simCfg *config.SimConfig) int {
	mem := newMemoryForProgram(prog)
	loader.Apply(prog, mem)

	core := pipeline.NewCore(simCfg.CoreConfig(), mem, os.Stdout)
	if *verbose {
		core.SetTrace(os.Stderr)
	}
	core.SetPC(prog.EntryPoint)

	const maxCycles = 10_000_000
	cycles := 0
	var code uint32
	var exited bool
	for ; cycles < maxCycles; cycles++ {
		if code, exited = core.CheckExit(simCfg.RiscvTest); exited {
			break
		}
		core.Tick()
	}
	core.FlushConsole()

	stats := core.Stats()
	fmt.Printf("\nProgram: %s\n", programPath)
	fmt.Printf("Exit code: %d\n", code)
	fmt.Printf("PERF: instructions=%d cycles=%d cpi=%.3f\n",
		stats.Instrs, stats.Cycles, cpi(stats))

	if pred := core.Predictor(); pred != nil {
		predStats := pred.Stats()
		fmt.Printf("Branch predictor: accuracy=%.2f%% mispredictions=%d btb_hit_rate=%.2f%%\n",
			predStats.Accuracy(), predStats.Mispredictions, predStats.BTBHitRate())
	}

	if !exited {
		fmt.Fprintf(os.Stderr, "warning: program did not exit within %d cycles\n", maxCycles)
	}

	return int(code)
}

// newMemoryForProgram sizes a Memory large enough to hold every
// segment the program loads, falling back to emu.DefaultMemorySize
// for small programs.
func newMemoryForProgram(prog *loader.Program) *emu.Memory {
	size := uint32(emu.DefaultMemorySize)
	for _, seg := range prog.Segments {
		top := seg.VirtAddr + seg.MemSize
		if top > size {
			size = top
		}
	}
	return emu.NewMemory(size)
}

func cpi(stats pipeline.PerfStats) float64 {
	if stats.Instrs == 0 {
		return 0
	}
	return float64(stats.Cycles) / float64(stats.Instrs)
}
