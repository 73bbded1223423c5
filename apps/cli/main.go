// Command edunet is the command line front end of the education network.
package main

import (
	"fmt"
	"os"

	"github.com/trezcool/edunet/core"
)

func main() {
	c := newContainer(core.NewConfig, newFileTokenStore)

	if err := c.Invoke(func(conf *core.Config) error { return conf.CheckSecretKey() }); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var runErr error
	if err := c.Invoke(func(cli *commandLine) {
		runErr = cli.run(os.Args)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if runErr != nil {
		if runErr != errHelp {
			fmt.Fprintf(os.Stderr, "error: %s\n", describe(runErr))
		}
		os.Exit(1)
	}
}
