// This program performs administrative tasks for the block storage.
package main

import (
	"fmt"
	"os"

	"github.com/ardanlabs/blockstore/app/tooling/admin/cmd"
	"github.com/ardanlabs/blockstore/foundation/logger"
)

func main() {

	// Construct the application logger. Logs go to stderr so command output
	// can be piped.
	log, err := logger.New("ADMIN", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cmd.Execute(log); err != nil {
		log.Errorw("admin", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}
