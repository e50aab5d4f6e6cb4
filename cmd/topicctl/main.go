// Command topicctl runs a topic analysis over a JSON corpus file without the
// HTTP service.
package main

import (
	"context"
	"os"

	"github.com/kailas-cloud/topicdex/internal/version"
)

func main() {
	if err := run(context.Background(), os.Args, version.Version); err != nil {
		os.Exit(1)
	}
}
