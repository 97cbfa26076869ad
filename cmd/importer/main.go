// Command importer replays a TraceRecorder file (snapshot or
// streaming) into Modality. Grounded on the teacher's
// mainWithExitCode/signal.NotifyContext pattern in main.go.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/cliexit"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/config"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/controlloop"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/logging"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/metrics"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/sink"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/transport"
)

const metricsLogInterval = 30 * time.Second

func main() {
	os.Exit(int(mainWithExitCode()))
}

func mainWithExitCode() cliexit.Code {
	c := config.NewCLIFlags("importer")
	var protocol, file string
	c.FlagSet.StringVar(&protocol, "protocol", "", "TraceRecorder wire protocol: streaming or snapshot. Defaults to streaming.")
	c.FlagSet.StringVar(&file, "file", "", "Path to the TraceRecorder trace file to replay.")

	if err := c.Parse(os.Args[1:]); err != nil {
		logrus.Errorf("parsing arguments: %v", err)
		return cliexit.ParseError
	}

	doc, err := config.LoadImporter(c)
	if err != nil {
		logrus.Errorf("loading configuration: %v", err)
		return cliexit.ForError(err)
	}
	if file != "" {
		doc.Metadata.ImportConfig.File = file
	}
	if protocol != "" {
		doc.Metadata.ImportConfig.Protocol = protocol
	}

	log := logging.New(logrus.InfoLevel, doc.Metadata.PluginConfig.RunID, "importer")

	mainCtx, mainCancel := signal.NotifyContext(context.Background(),
		unix.SIGINT, unix.SIGTERM, unix.SIGABRT)
	defer mainCancel()

	tr := transport.NewFile(doc.Metadata.ImportConfig.File)
	sinkClient := sink.NewClient(sink.UnwiredTransport{})

	deps := controlloop.Deps{
		Transport:       tr,
		Parser:          recorder.UnwiredParser{},
		Sink:            sinkClient,
		Config:          doc.Metadata.PluginConfig,
		Metrics:         &metrics.Counters{},
		Log:             log,
		MetricsInterval: metricsLogInterval,
	}

	log.Info("starting import")
	if err := controlloop.Run(mainCtx, deps); err != nil {
		log.WithError(err).Error("import failed")
		return cliexit.ForError(err)
	}
	log.Info("import complete")
	return cliexit.Success
}
