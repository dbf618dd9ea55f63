package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sketchvm/sketchvm"
	"github.com/sketchvm/sketchvm/internal/ascii"
)

var (
	verbose       bool
	debug         bool
	maxIterations uint32
	outPath       string
)

// main wires a cobra root command with run/decode/version/monitor
// subcommands, grounded on zboralski-galago/cmd/galago/main.go's
// rootCmd + AddCommand structure.
func main() {
	rootCmd := &cobra.Command{
		Use:   "sketchvm",
		Short: "Run and inspect compiled Arduino sketch programs",
		Long: `sketchvm executes pre-parsed Arduino/C++ sketch programs encoded in the
Compact AST binary container and emits a deterministic command stream
describing every observable side effect.`,
		DisableFlagsInUseLine: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug-level logging")

	runCmd := &cobra.Command{
		Use:   "run <program.astp>",
		Short: "Execute a compiled sketch program",
		Args:  cobra.ExactArgs(1),
		RunE:  runProgram,
	}
	runCmd.Flags().Uint32VarP(&maxIterations, "max-iterations", "n", 1, "bounded loop() iteration count (0 = unbounded)")
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the JSONL command stream here instead of stdout")
	rootCmd.AddCommand(runCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode <program.astp>",
		Short: "Pretty-print a compiled sketch program's AST",
		Args:  cobra.ExactArgs(1),
		RunE:  decodeProgram,
	}
	rootCmd.AddCommand(decodeCmd)

	monitorCmd := &cobra.Command{
		Use:   "monitor <program.astp>",
		Short: "Run a sketch program with a live TUI command monitor",
		Args:  cobra.ExactArgs(1),
		RunE:  monitorProgram,
	}
	monitorCmd.Flags().Uint32VarP(&maxIterations, "max-iterations", "n", 10, "bounded loop() iteration count (0 = unbounded)")
	rootCmd.AddCommand(monitorCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the engine version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(sketchvm.EngineVersion)
			return nil
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadProgram(path string) (*sketchvm.ProgramNode, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	n, err := sketchvm.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	prog, ok := n.(*sketchvm.ProgramNode)
	if !ok {
		return nil, fmt.Errorf("%s does not decode to a program node", path)
	}
	return prog, nil
}

func runProgram(cmd *cobra.Command, args []string) error {
	prog, err := loadProgram(args[0])
	if err != nil {
		return err
	}

	sketchvm.InitLogging(debug)

	opts := sketchvm.DefaultOptions()
	opts.MaxLoopIterations = maxIterations
	opts.Verbose = verbose
	opts.Debug = debug

	engine := sketchvm.NewEngine(prog, opts)
	engine.SetLogger(sketchvm.L)

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		engine.SetCommandSink(sketchvm.NewJSONLSink(f))
	} else {
		engine.SetCommandSink(sketchvm.NewJSONLSink(out))
	}

	if err := engine.Start(); err != nil {
		return err
	}
	for engine.State == sketchvm.StateRunningLoop {
		if err := engine.Resume(); err != nil {
			return err
		}
	}
	return nil
}

// printNode walks the AST depth-first, indenting each node under its
// parent so the decode output reads as a tree rather than a flat list.
func printNode(n sketchvm.Node, depth int, theme ascii.Theme) {
	if n == nil {
		return
	}
	label := ascii.Color(theme.Label, "%s", n.Type())
	fmt.Printf("%*s%s\n", depth*2, "", label)
	for _, c := range sketchvm.Children(n) {
		printNode(c, depth+1, theme)
	}
}

func decodeProgram(cmd *cobra.Command, args []string) error {
	prog, err := loadProgram(args[0])
	if err != nil {
		return err
	}
	theme := ascii.DefaultTheme
	printNode(prog, 0, theme)
	summary := ascii.Color(theme.Muted, "functions: %d, globals: %d", len(prog.Functions()), len(prog.Globals()))
	fmt.Println(summary)
	return nil
}
