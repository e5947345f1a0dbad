package cli

import (
	"fmt"
	"io"
)

func Help(program string, stdout io.Writer) {
	Version(stdout)
	fmt.Fprintf(stdout, "Usage: \"%s [-Options...] SourceFile [OutputFile]\"\n", program)
	fmt.Fprintln(stdout, "")
	fmt.Fprintln(stdout, "Rebuilds the index of an MP4 file whose moov box is missing or broken,")
	fmt.Fprintln(stdout, "using only the interleaved H.264 and ADTS AAC payload.")
	fmt.Fprintln(stdout, "OutputFile defaults to \"<name>.fixed.mp4\" in the current directory.")
	fmt.Fprintln(stdout, "")
	fmt.Fprintln(stdout, "Options:")
	fmt.Fprintln(stdout, "--Help, -h")
	fmt.Fprintln(stdout, "                    Display this help and exit")
	fmt.Fprintln(stdout, "--Version, -v")
	fmt.Fprintln(stdout, "                    Display version information and exit")
	fmt.Fprintln(stdout, "")
	fmt.Fprintln(stdout, "--HE-AAC, -a")
	fmt.Fprintln(stdout, "                    Treat the source's audio as HE-AAC (halves frame durations)")
	fmt.Fprintln(stdout, "--Debug, -d")
	fmt.Fprintln(stdout, "                    Write debugging dumps and log diagnostics to stderr")
	fmt.Fprintln(stdout, "--Debug-Dir=...")
	fmt.Fprintln(stdout, "                    Directory for debugging dumps (default: current directory)")
	fmt.Fprintln(stdout, "--Output=TEXT|JSON")
	fmt.Fprintln(stdout, "                    Select summary format")
	fmt.Fprintln(stdout, "--Quiet, -q")
	fmt.Fprintln(stdout, "                    Do not print scan progress")
	fmt.Fprintln(stdout, "")
	fmt.Fprintln(stdout, "Commands:")
	fmt.Fprintln(stdout, "completion           Generate the autocompletion script for the specified shell")
	fmt.Fprintln(stdout, "help                 Help about any command")
	fmt.Fprintln(stdout, "version              Print go-remoover version information")
	fmt.Fprintln(stdout, "update               Update remoover to latest version (release builds only)")
}

func HelpNothing(program string, stdout io.Writer) {
	fmt.Fprintf(stdout, "Usage: \"%s [-Options...] SourceFile [OutputFile]\"\n", program)
	fmt.Fprintf(stdout, "\"%s --help\" for displaying more information\n", program)
}

func HelpOutput(program string, stdout io.Writer) {
	fmt.Fprintln(stdout, "--Output=...  Select a summary format")
	fmt.Fprintf(stdout, "Usage: \"%s --Output=JSON SourceFile\"\n", program)
	fmt.Fprintln(stdout, "")
	fmt.Fprintln(stdout, "Supported formats:")
	fmt.Fprintln(stdout, "TEXT, JSON")
}

func Usage(program string, stdout io.Writer) int {
	HelpNothing(program, stdout)
	return exitError
}
