package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	ol "github.com/ossrs/go-oryx-lib/logger"

	"github.com/autobrr/go-remoover/internal/remoover"
)

const (
	exitOK            = 0
	exitError         = 1
	exitInvalidSource = 2
)

const invalidSourceMessage = "You must supply a path to an existing video as the first parameter."

type Options struct {
	HEAAC    bool
	Debug    bool
	DebugDir string
	Output   string
	Quiet    bool
}

func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		return exitError
	}

	program := programName(args[0])
	opts := Options{}
	files := make([]string, 0, 2)
	onlyFiles := false

	for i := 1; i < len(args); i++ {
		original := args[i]
		if onlyFiles {
			files = append(files, original)
			continue
		}
		normalized := normalizeArg(original)

		switch {
		case normalized == "--he-aac" || normalized == "-a":
			opts.HEAAC = true
		case normalized == "--debug" || normalized == "-d":
			opts.Debug = true
		case strings.HasPrefix(normalized, "--debug-dir="):
			value, _ := valueAfterEqual(original)
			opts.DebugDir = value
		case normalized == "--quiet" || normalized == "-q":
			opts.Quiet = true
		case normalized == "--help" || normalized == "-h":
			Help(program, stdout)
			return exitOK
		case normalized == "--version" || normalized == "-v":
			Version(stdout)
			return exitOK
		case strings.HasPrefix(normalized, "--output="):
			value, _ := valueAfterEqual(original)
			if !validOutput(value) {
				HelpOutput(program, stdout)
				return exitError
			}
			opts.Output = value
		case normalized == "--":
			onlyFiles = true
		case strings.HasPrefix(normalized, "-") && normalized != "-":
			fmt.Fprintf(stderr, "unknown option: %s\n", original)
			HelpNothing(program, stderr)
			return exitError
		default:
			files = append(files, original)
		}
	}

	if len(files) == 0 || !sourceExists(files[0]) {
		fmt.Fprintln(stderr, invalidSourceMessage)
		return exitInvalidSource
	}
	if len(files) > 2 {
		fmt.Fprintf(stderr, "unexpected argument: %s\n", files[2])
		return Usage(program, stderr)
	}

	if opts.Debug {
		ol.Switch(stderr)
	} else {
		ol.Switch(io.Discard)
	}

	var dst string
	if len(files) > 1 {
		dst = files[1]
	}

	output, err := runCore(opts, files[0], dst, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		if errors.Is(err, remoover.ErrInvalidSource) {
			fmt.Fprintln(stderr, invalidSourceMessage)
			return exitInvalidSource
		}
		return exitError
	}

	fmt.Fprint(stdout, output)
	return exitOK
}

// runCore repairs src and returns the rendered summary. Scan progress is
// written to progress, never into the summary.
func runCore(opts Options, src, dst string, progress io.Writer) (string, error) {
	coreOpts := remoover.Options{
		HEAAC:    opts.HEAAC,
		Debug:    opts.Debug,
		DebugDir: opts.DebugDir,
		Output:   opts.Output,
	}
	if !opts.Quiet {
		coreOpts.Progress = progressPrinter(progress)
	}

	report, err := remoover.Repair(src, dst, coreOpts)
	if err != nil {
		return "", err
	}
	return remoover.Render(report, opts.Output), nil
}

// progressPrinter reports whole-percent steps on a single rewritten line.
func progressPrinter(w io.Writer) remoover.ProgressFunc {
	last := -1
	return func(scanned, total int64) {
		if total <= 0 {
			return
		}
		percent := int(scanned * 100 / total)
		if percent == last {
			return
		}
		last = percent
		fmt.Fprintf(w, "\rScanning: %3d%%", percent)
		if scanned >= total {
			fmt.Fprintln(w)
		}
	}
}

func validOutput(value string) bool {
	return strings.EqualFold(value, remoover.OutputText) || strings.EqualFold(value, remoover.OutputJSON)
}

func sourceExists(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

func programName(arg0 string) string {
	name := filepath.Base(arg0)
	if runtime.GOOS == "windows" {
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

func normalizeArg(arg string) string {
	eq := strings.IndexByte(arg, '=')
	if eq == -1 {
		eq = len(arg)
	}

	lower := strings.ToLower(arg[:eq])
	return lower + arg[eq:]
}

func valueAfterEqual(arg string) (string, bool) {
	eq := strings.IndexByte(arg, '=')
	if eq == -1 {
		return "", false
	}
	return arg[eq+1:], true
}
