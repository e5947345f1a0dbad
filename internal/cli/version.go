package cli

import (
	"fmt"
	"io"

	"github.com/autobrr/go-remoover/internal/remoover"
)

var appVersion = "dev"

func SetVersion(version string) {
	if version != "" {
		appVersion = version
	}
}

func Version(stdout io.Writer) {
	fmt.Fprintf(stdout, "go-remoover, %s\n", remoover.FormatVersion(appVersion))
}
