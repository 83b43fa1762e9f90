// The afl tool converts and inspects game asset files: Yaz0 streams, SARC
// archives, BYML documents and the resource formats carried inside them.
package main

import (
	"fmt"
	"os"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	e := &env{}
	app := &cli.App{
		Name:  "afl",
		Usage: "asset format tool for Yaz0, SARC and BYML files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "INFO", Usage: "Set log level (DEBUG, INFO, WARN, ERROR)", EnvVars: []string{"AFL_LOG_LEVEL"}},
			&cli.StringFlag{Name: "container", Usage: "Write outputs to this blob container instead of the local filesystem", EnvVars: []string{"AFL_BLOB_CONTAINER"}},
		},
		Before: func(c *cli.Context) error {
			logger.New(c.String("log-level"))
			e.log = logger.Sugar.WithServiceName("afl")
			e.container = c.String("container")
			return nil
		},
	}
	app.Commands = []*cli.Command{
		yaz0Command(e),
		sarcCommand(e),
		szsCommand(e),
		bymlCommand(e),
		infoCommand(e),
	}
	return app
}

func main() {
	defer logger.OnExit()
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "afl: %v\n", err)
		logger.OnExit()
		os.Exit(1)
	}
}
