// dexpatch CLI - loads bytecode containers, applies a patch bundle, and
// writes the patched containers back out.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/dexpatch/manifest"
	"github.com/chazu/dexpatch/patcher"
	"github.com/chazu/dexpatch/store"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	bundleDir := flag.String("bundle", "", "Directory containing dexpatch.toml (default: walk up from cwd)")
	outDir := flag.String("o", "", "Output directory (overrides manifest)")
	stopOnError := flag.Bool("stop-on-error", false, "Abort on the first failed patch")
	listMode := flag.Bool("list", false, "Resolve signatures and disassemble the matched methods, then exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dexpatch [options] [containers...]\n\n")
		fmt.Fprintf(os.Stderr, "Loads the containers named in dexpatch.toml (or given as arguments),\n")
		fmt.Fprintf(os.Stderr, "applies the bundle's patches, and writes the results to the output directory.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dexpatch                          # Use dexpatch.toml found by walking up\n")
		fmt.Fprintf(os.Stderr, "  dexpatch -bundle ./bundle         # Use a specific bundle directory\n")
		fmt.Fprintf(os.Stderr, "  dexpatch -list classes.dexc       # Show what the bundle's signatures resolve to\n")
		fmt.Fprintf(os.Stderr, "  dexpatch -o out classes.dexc classes2.dexc\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	m, err := loadManifest(*bundleDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Positional container paths override the manifest's input list.
	paths := flag.Args()
	if len(paths) == 0 && m != nil {
		paths = m.ContainerPaths()
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no input containers (give paths or a dexpatch.toml with [input])\n")
		flag.Usage()
		os.Exit(2)
	}

	var signatures []*patcher.MethodSignature
	if m != nil {
		signatures, err = m.CompileSignatures()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	p, err := patcher.New(paths, signatures)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		fmt.Printf("Loaded %d containers, %d classes\n",
			len(p.Cache().Pool().ContainerNames()), p.Cache().Pool().Len())
	}

	if *listMode {
		listSignatures(p, m)
		os.Exit(0)
	}

	stopGiven := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "stop-on-error" {
			stopGiven = true
		}
	})
	stop := stopOnErrorSetting(*stopOnError, stopGiven, m)

	outputDir := *outDir
	if outputDir == "" && m != nil {
		outputDir = m.OutputDir()
	}
	if outputDir == "" {
		outputDir = "out"
	}

	storePath := ""
	if m != nil {
		storePath = m.StorePath()
	}

	if err := run(p, paths, outputDir, storePath, stop, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// stopOnErrorSetting resolves the effective stop-on-error policy: a flag
// given on the command line wins either way; otherwise the manifest's
// setting applies.
func stopOnErrorSetting(flagValue, flagGiven bool, m *manifest.Manifest) bool {
	if flagGiven || m == nil {
		return flagValue
	}
	return m.Apply.StopOnError
}

// loadManifest loads the bundle manifest. A missing manifest is only an
// error when a directory was named explicitly.
func loadManifest(bundleDir string) (*manifest.Manifest, error) {
	if bundleDir != "" {
		return manifest.Load(bundleDir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return manifest.FindAndLoad(cwd)
}

// run applies the bundle's patches and writes the outputs. When a store is
// configured and already holds outputs for this exact input set, the cached
// outputs are written instead of re-running the pipeline.
func run(p *patcher.Patcher, paths []string, outputDir, storePath string, stop, verbose bool) error {
	var st *store.Store
	var inputHash string
	if storePath != "" {
		var err error
		st, err = store.Open(storePath)
		if err != nil {
			return err
		}
		defer st.Close()

		inputHash, err = store.HashInputs(paths)
		if err != nil {
			return err
		}
		if cached, err := st.GetOutputs(inputHash); err == nil {
			if verbose {
				fmt.Printf("Store hit for %s, writing cached outputs\n", inputHash[:12])
			}
			return writeOutputs(outputDir, cached)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	onProgress := func(name string) {
		if verbose {
			fmt.Printf("Applying %s...\n", name)
		}
	}
	results := p.ApplyPatches(stop, onProgress)

	failed := 0
	for name, r := range results {
		if r.OK {
			continue
		}
		failed++
		fmt.Fprintf(os.Stderr, "patch %s failed: %v\n", name, r.Err)
	}
	if stop && failed > 0 {
		return fmt.Errorf("%d patch(es) failed", failed)
	}

	outputs, err := p.Save()
	if err != nil {
		return err
	}
	if err := writeOutputs(outputDir, outputs); err != nil {
		return err
	}

	if st != nil {
		if err := st.PutOutputs(inputHash, outputs); err != nil {
			return err
		}
		outcomes := make([]store.Outcome, 0, len(results))
		for name, r := range results {
			o := store.Outcome{Patch: name, OK: r.OK, Message: r.Message}
			if !r.OK && r.Err != nil {
				o.Message = r.Err.Error()
			}
			outcomes = append(outcomes, o)
		}
		if err := st.PutOutcomes(inputHash, outcomes); err != nil {
			return err
		}
	}

	if verbose {
		fmt.Printf("Wrote %d containers to %s\n", len(outputs), outputDir)
	}
	return nil
}

// writeOutputs writes one serialized container per source file name.
func writeOutputs(outputDir string, outputs map[string][]byte) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for name, data := range outputs {
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// listSignatures resolves the bundle's signatures and prints the matched
// methods in disassembled form.
func listSignatures(p *patcher.Patcher, m *manifest.Manifest) {
	if m == nil || len(m.Signatures) == 0 {
		fmt.Println("No signatures declared")
		return
	}

	cache := p.Cache()
	cache.Resolve()

	for _, sig := range m.Signatures {
		r, err := cache.Method(sig.Name)
		if err != nil {
			fmt.Printf("%s: unresolved\n", sig.Name)
			continue
		}
		method := r.Method()
		fmt.Printf("%s: %s.%s%s (pattern at %d)\n",
			sig.Name, r.Proxy.Original().Type, method.Name, method.Descriptor(), r.PatternOffset)
		fmt.Print(method.Disassemble())
		fmt.Println()
	}
}
