// planar-bmp converts 24-bit bitmaps to and from planar R, G, B buffers
// and runs per-channel filters over them.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anas-shakeel/planar-bmp/internal/bmp"
	"github.com/anas-shakeel/planar-bmp/internal/config"
	"github.com/anas-shakeel/planar-bmp/internal/pipeline"
	"github.com/anas-shakeel/planar-bmp/internal/planefile"
	"github.com/anas-shakeel/planar-bmp/internal/server"
	"github.com/disintegration/imaging"
)

var debugMode bool

type command struct {
	usage string
	run   func(args []string) error
}

var commands map[string]command

func init() {
	debugMode = os.Getenv("DEBUG") == "true"

	commands = map[string]command{
		"info":   {"info <in.bmp>", runInfo},
		"print":  {"print <in.bmp>", runPrint},
		"decode": {"decode <in.bmp> <out.pln>", runDecode},
		"encode": {"encode <in.pln> <out.bmp>", runEncode},
		"import": {"import <in.png|jpg|gif|tif> <out.bmp>", runImport},
		"export": {"export <in.bmp> <out.png|jpg|gif|tif>", runExport},
		"filter": {"filter -steps name[:k=v,...][;name...] <in.bmp> <out.bmp>", runFilter},
		"run":    {"run -config job.yml", runJob},
		"serve":  {"serve [-addr 127.0.0.1:8080]", runServe},
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	start := time.Now()
	if err := cmd.run(os.Args[2:]); err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
	debugf("%s finished in %v", os.Args[1], time.Since(start))
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: planar-bmp <command> [arguments]")
	for _, name := range []string{"info", "print", "decode", "encode", "import", "export", "filter", "run", "serve"} {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
	fmt.Fprintf(os.Stderr, "filters: %s\n", strings.Join(pipeline.Names(), ", "))
}

func debugf(format string, args ...interface{}) {
	if debugMode {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// Checks that exactly n positional arguments were given
func positional(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("expected %d argument(s), usage: %s", n, usage)
	}
	return nil
}

func runInfo(args []string) error {
	if err := positional(args, 1, commands["info"].usage); err != nil {
		return err
	}

	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	conf, err := bmp.DecodeConfig(bufio.NewReader(file))
	if err != nil {
		return err
	}
	conf.PrintMetadata(os.Stdout, args[0])
	return nil
}

func runPrint(args []string) error {
	if err := positional(args, 1, commands["print"].usage); err != nil {
		return err
	}
	p, err := bmp.DecodeFile(args[0])
	if err != nil {
		return err
	}
	if p.Width > 200 {
		log.Printf("Warning: %s is %d pixels wide, the preview will wrap", args[0], p.Width)
	}
	p.Print(os.Stdout)
	return nil
}

func runDecode(args []string) error {
	if err := positional(args, 2, commands["decode"].usage); err != nil {
		return err
	}
	p, err := bmp.DecodeFile(args[0])
	if err != nil {
		return err
	}
	debugf("decoded %s: %dx%d", args[0], p.Width, p.Height)

	if err := planefile.WriteFile(args[1], p); err != nil {
		return err
	}
	log.Printf("Decoded %s -> %s (%dx%d)", args[0], args[1], p.Width, p.Height)
	return nil
}

func runEncode(args []string) error {
	if err := positional(args, 2, commands["encode"].usage); err != nil {
		return err
	}
	p, err := planefile.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := bmp.EncodeFile(args[1], p); err != nil {
		return err
	}
	log.Printf("Encoded %s -> %s (%dx%d)", args[0], args[1], p.Width, p.Height)
	return nil
}

func runImport(args []string) error {
	if err := positional(args, 2, commands["import"].usage); err != nil {
		return err
	}
	img, err := imaging.Open(args[0])
	if err != nil {
		return err
	}
	p, err := bmp.FromImage(img)
	if err != nil {
		return err
	}
	if err := bmp.EncodeFile(args[1], p); err != nil {
		return err
	}
	log.Printf("Imported %s -> %s (%dx%d)", args[0], args[1], p.Width, p.Height)
	return nil
}

func runExport(args []string) error {
	if err := positional(args, 2, commands["export"].usage); err != nil {
		return err
	}
	p, err := bmp.DecodeFile(args[0])
	if err != nil {
		return err
	}
	if err := imaging.Save(p.ToImage(), args[1]); err != nil {
		return err
	}
	log.Printf("Exported %s -> %s (%s)", args[0], args[1], strings.TrimPrefix(filepath.Ext(args[1]), "."))
	return nil
}

func runFilter(args []string) error {
	fs := flag.NewFlagSet("filter", flag.ContinueOnError)
	stepsFlag := fs.String("steps", "", "Semicolon-separated steps, e.g. \"blur:passes=3;invert\"")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := positional(fs.Args(), 2, commands["filter"].usage); err != nil {
		return err
	}

	steps, err := parseSteps(*stepsFlag)
	if err != nil {
		return err
	}
	return process(&config.Job{Input: fs.Arg(0), Output: fs.Arg(1), Steps: steps})
}

func runJob(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "job.yml", "YAML job file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	job, err := config.LoadJob(*configPath)
	if err != nil {
		return err
	}
	log.Printf("Loaded job %s with %d step(s)", *configPath, len(job.Steps))
	return process(job)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:8080", "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv := server.NewServer(*addr, debugMode)
	log.Printf("Starting server on %s", srv.Addr)
	return srv.ListenAndServe()
}

// Decodes the job input, applies its steps and encodes the result
func process(job *config.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	p, err := bmp.DecodeFile(job.Input)
	if err != nil {
		return err
	}

	for _, s := range job.Steps {
		debugf("step %s %v", s.Name, s.Args)
	}
	out, err := pipeline.Apply(p, job.Steps)
	if err != nil {
		return err
	}

	if err := bmp.EncodeFile(job.Output, out); err != nil {
		return err
	}
	log.Printf("Wrote %s (%dx%d) after %d step(s)", job.Output, out.Width, out.Height, len(job.Steps))
	return nil
}

// Parses "name:k=v,k=v;name2" into steps
func parseSteps(s string) ([]pipeline.Step, error) {
	var steps []pipeline.Step
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, rest, _ := strings.Cut(part, ":")
		step := pipeline.Step{Name: strings.TrimSpace(name)}
		if rest != "" {
			step.Args = make(map[string]interface{})
			for _, kv := range strings.Split(rest, ",") {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return nil, fmt.Errorf("step %q: argument %q is not key=value", step.Name, kv)
				}
				step.Args[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		}
		steps = append(steps, step)
	}
	return steps, nil
}
