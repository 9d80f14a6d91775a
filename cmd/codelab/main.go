// Command codelab serves the code execution and grading API.
//
//	codelab serve              # HTTP API
//	codelab runner             # bundled custom sandbox backend
//	codelab migrate            # create the schema
//	codelab seed -f ex.yaml    # import exercises
//	codelab token -u alice     # issue an API token
package main

import (
	"fmt"
	"os"

	"github.com/sakif/codelab/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
