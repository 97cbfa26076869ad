// Command tcp-collector streams a live TraceRecorder session over a
// TCP connection into Modality. Grounded on the teacher's
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
const defaultConnectTimeout = 5 * time.Second

func main() {
	os.Exit(int(mainWithExitCode()))
}

func mainWithExitCode() cliexit.Code {
	c := config.NewCLIFlags("tcp-collector")
	var remote string
	var restart, disableControlPlane bool
	c.FlagSet.StringVar(&remote, "remote", "", "host:port of the TraceRecorder TCP stream.")
	c.FlagSet.BoolVar(&restart, "restart", false, "Issue STOP then START on attach.")
	c.FlagSet.BoolVar(&disableControlPlane, "disable-control-plane", false, "Never write CMD_SET_ACTIVE.")

	if err := c.Parse(os.Args[1:]); err != nil {
		logrus.Errorf("parsing arguments: %v", err)
		return cliexit.ParseError
	}

	doc, err := config.LoadTcpCollector(c)
	if err != nil {
		logrus.Errorf("loading configuration: %v", err)
		return cliexit.ForError(err)
	}
	if remote != "" {
		doc.Metadata.TcpCollectorConfig.Remote = remote
	}
	if restart {
		doc.Metadata.TcpCollectorConfig.Restart = true
	}
	if disableControlPlane {
		doc.Metadata.TcpCollectorConfig.DisableControlPlane = true
	}

	log := logging.New(logrus.InfoLevel, doc.Metadata.PluginConfig.RunID, "tcp-collector")

	mainCtx, mainCancel := signal.NotifyContext(context.Background(),
		unix.SIGINT, unix.SIGTERM, unix.SIGABRT)
	defer mainCancel()

	connectTimeout := doc.Metadata.TcpCollectorConfig.ConnectTimeout.Duration()
	if connectTimeout == 0 {
		connectTimeout = defaultConnectTimeout
	}
	tr := transport.NewTCP(doc.Metadata.TcpCollectorConfig.Remote, connectTimeout,
		doc.Metadata.TcpCollectorConfig.Restart, doc.Metadata.TcpCollectorConfig.DisableControlPlane)
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

	log.Info("starting collection")
	if err := controlloop.Run(mainCtx, deps); err != nil {
		log.WithError(err).Error("collection failed")
		return cliexit.ForError(err)
	}
	log.Info("collection complete")
	return cliexit.Success
}
