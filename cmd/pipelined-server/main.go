package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/HasinZaman/pipelined-server/pkg/buildinfo"
	"github.com/HasinZaman/pipelined-server/pkg/logging"
	"github.com/HasinZaman/pipelined-server/pkg/pipeline"
	"github.com/HasinZaman/pipelined-server/pkg/server"
	"github.com/HasinZaman/pipelined-server/pkg/serversettings"
)

var serveConfiguration struct {
	// config is the path to the YAML server configuration file.
	config string
	// pipelines is the number of parallel processing pipelines to run.
	pipelines int
	// fileWorkerMaxReads caps the shared file worker's concurrent reads.
	fileWorkerMaxReads int
	// help indicates whether help information should be shown.
	help bool
}

func serveMain(_ *cobra.Command, _ []string) error {
	settings, err := serversettings.Load(serveConfiguration.config)
	if err != nil {
		return errors.Wrap(err, "unable to load server configuration")
	}

	logger := logging.RootLogger.Sublogger("server")
	logger.Infof("loaded configuration generation %s", settings.Generation())

	address := fmt.Sprintf("%s:%d", settings.Snapshot().Address, settings.Snapshot().Port)

	cfg := server.Config{
		PipelineCount:      serveConfiguration.pipelines,
		Pipeline:           pipeline.DefaultConfig(),
		FileWorkerMaxReads: serveConfiguration.fileWorkerMaxReads,
	}

	srv := server.New(cfg, pipeline.NewHandlerSet(), settings, logger)

	return srv.Serve(address)
}

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Run the static file server",
	RunE:  serveMain,
}

func init() {
	flags := serveCommand.Flags()
	flags.SortFlags = false
	flags.BoolVarP(&serveConfiguration.help, "help", "h", false, "Show help information")
	flags.StringVarP(&serveConfiguration.config, "config", "c", "server.yml", "Path to the server configuration file")
	flags.IntVarP(&serveConfiguration.pipelines, "pipelines", "n", 4, "Number of parallel processing pipelines")
	flags.IntVar(&serveConfiguration.fileWorkerMaxReads, "max-reads", 32, "Maximum concurrent file reads")
}

func versionMain(_ *cobra.Command, _ []string) error {
	fmt.Println(buildinfo.Version)
	return nil
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  versionMain,
}

var rootCommand = &cobra.Command{
	Use:   "pipelined-server",
	Short: "pipelined-server serves static files through a fixed pipeline of parser, action, compression, and sender stages",
}

func init() {
	cobra.EnableCommandSorting = false
	rootCommand.AddCommand(
		serveCommand,
		versionCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
