// Command wgslir compiles WGSL to the control-flow IR and prints it.
//
// Usage:
//
//	wgslir [options] <input.wgsl>
//
// Examples:
//
//	wgslir shader.wgsl                   # Print IR with a single return per function
//	wgslir -merge-return=false shader.wgsl
//	wgslir -deps shader.wgsl             # Print the declaration dependency order
//	wgslir -o shader.ir shader.wgsl      # Write IR to a file
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/gogpu/wgslfront"
	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/resolver"
	"github.com/gogpu/wgslfront/wgsl"
)

const wgslirVersion = "0.1.0-dev"

func main() {
	colors := os.Getenv("TERM") != "dumb" &&
		(isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
	if _, disable := os.LookupEnv("NO_COLOR"); disable {
		colors = false
	}

	stderr := colorable.NewNonColorable(os.Stderr)
	if colors {
		stderr = colorable.NewColorableStderr()
	}
	os.Exit(run(os.Args[1:], os.Stdout, stderr, colors))
}

// run executes the command with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer, colors bool) int {
	fs := flag.NewFlagSet("wgslir", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		output      = fs.String("o", "", "output file (default: stdout)")
		mergeReturn = fs.Bool("merge-return", true, "rewrite functions to a single return")
		validate    = fs.Bool("validate", true, "validate IR")
		parallel    = fs.Bool("parallel", false, "lower function bodies concurrently")
		strictOrder = fs.Bool("strict-order", false, "reject functions used before their declaration")
		deps        = fs.Bool("deps", false, "print the declaration dependency order instead of IR")
		codes       = fs.Bool("codes", false, "show diagnostic codes")
		version     = fs.Bool("version", false, "print version")
	)
	fs.BoolVar(&colors, "colors", colors, "enable / disable colors")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *version {
		fmt.Fprintf(stdout, "wgslir version %s\n", wgslirVersion)
		return 0
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "Error: no input file specified")
		usage(fs)
		return 2
	}
	inputPath := fs.Arg(0)

	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file: %v\n", err)
		return 1
	}

	opts := wgslfront.DefaultOptions()
	opts.Resolver = resolver.Options{RejectOutOfOrder: *strictOrder}
	opts.Lower.Parallel = *parallel
	opts.MergeReturn = *mergeReturn
	opts.Validate = *validate

	var text string
	if *deps {
		text, err = dependencyOrder(inputPath, string(source), opts.Resolver)
	} else {
		var module *ir.Module
		module, err = wgslfront.CompileFile(inputPath, string(source), opts)
		if err == nil {
			text = ir.Disassemble(module)
		}
	}
	if err != nil {
		report(stderr, err, inputPath, string(source), colors, *codes)
		return 1
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(text), 0o644); err != nil {
			fmt.Fprintf(stderr, "Error writing output: %v\n", err)
			return 1
		}
		return 0
	}
	if _, err := io.WriteString(stdout, text); err != nil {
		fmt.Fprintf(stderr, "Error writing output: %v\n", err)
		return 1
	}
	return 0
}

// dependencyOrder lists the module-scope declarations in the order the
// IR builder visits them, each followed by its direct dependencies.
func dependencyOrder(name, source string, opts resolver.Options) (string, error) {
	ast, err := wgslfront.ParseFile(name, source)
	if err != nil {
		return "", err
	}
	graph, err := wgslfront.Resolve(ast, opts)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, d := range graph.Ordered {
		fmt.Fprintf(&sb, "%s %s", wgsl.DeclKind(d), wgsl.DeclName(d))
		edges := graph.Dependencies(d)
		if len(edges) > 0 {
			names := make([]string, len(edges))
			for i, e := range edges {
				names[i] = wgsl.DeclName(e.To)
			}
			fmt.Fprintf(&sb, " <- %s", strings.Join(names, ", "))
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// report prints err to w, with source context for parse errors and
// diagnostics.
func report(w io.Writer, err error, name, source string, colors, codes bool) {
	var list diag.List
	if errors.As(err, &list) {
		f := &diag.Formatter{
			Sources:   map[string]string{name: source},
			Color:     colors,
			ShowCodes: codes,
		}
		_ = f.Format(w, list)
		fmt.Fprintf(w, "%d error(s)\n", list.ErrorCount())
		return
	}

	var parseErrs wgsl.SourceErrors
	if errors.As(err, &parseErrs) {
		fmt.Fprintln(w, parseErrs.FormatAll())
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintf(w, "Usage: wgslir [options] <input.wgsl>\n\n")
	fmt.Fprintf(w, "Options:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  wgslir shader.wgsl                    Print IR to stdout\n")
	fmt.Fprintf(w, "  wgslir -merge-return=false shader.wgsl Keep early returns\n")
	fmt.Fprintf(w, "  wgslir -deps shader.wgsl              Print dependency order\n")
}
