// Command itm-collector streams a live TraceRecorder session off a
// debug probe's ITM stimulus port into Modality. Grounded on the
// teacher's mainWithExitCode/signal.NotifyContext pattern in main.go.
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
	c := config.NewCLIFlags("itm-collector")
	var elfFile, probeSelector, chip, probeProtocol string
	var stimulusPort uint
	var speedKHz, core, clkHz, baudRate uint
	var restart, disableControlPlane, reset bool
	c.FlagSet.StringVar(&elfFile, "elf-file", "", "ELF file used to resolve tz_host_command_data/tz_host_command_bytes_to_read.")
	c.FlagSet.StringVar(&probeSelector, "probe-selector", "", "Debug probe selector (VID:PID:serial).")
	c.FlagSet.StringVar(&chip, "chip", "", "Target chip name.")
	c.FlagSet.StringVar(&probeProtocol, "protocol", "", "Debug probe wire protocol: swd or jtag. Defaults to swd.")
	c.FlagSet.UintVar(&stimulusPort, "stimulus-port", 0, "ITM stimulus port to read. Defaults to 1.")
	c.FlagSet.UintVar(&speedKHz, "speed", 0, "Debug probe clock speed in kHz. Defaults to 4000.")
	c.FlagSet.UintVar(&core, "core", 0, "Target core index.")
	c.FlagSet.UintVar(&clkHz, "clk", 0, "Target CPU clock in Hz, used to configure the ITM prescaler.")
	c.FlagSet.UintVar(&baudRate, "baud", 0, "ITM SWO baud rate.")
	c.FlagSet.BoolVar(&restart, "restart", false, "Issue STOP then START on attach.")
	c.FlagSet.BoolVar(&disableControlPlane, "disable-control-plane", false, "Never write CMD_SET_ACTIVE.")
	c.FlagSet.BoolVar(&reset, "reset", false, "Reset the target before attaching.")

	if err := c.Parse(os.Args[1:]); err != nil {
		logrus.Errorf("parsing arguments: %v", err)
		return cliexit.ParseError
	}

	doc, err := config.LoadItmCollector(c)
	if err != nil {
		logrus.Errorf("loading configuration: %v", err)
		return cliexit.ForError(err)
	}
	cfg := &doc.Metadata.ItmCollectorConfig
	if elfFile != "" {
		cfg.ElfFile = elfFile
	}
	if probeSelector != "" {
		cfg.ProbeSelector = probeSelector
	}
	if chip != "" {
		cfg.Chip = chip
	}
	if probeProtocol != "" {
		cfg.Protocol = probeProtocol
	}
	if stimulusPort != 0 {
		cfg.StimulusPort = uint8(stimulusPort)
	}
	if speedKHz != 0 {
		cfg.SpeedKHz = uint32(speedKHz)
	}
	if core != 0 {
		cfg.Core = uint32(core)
	}
	if clkHz != 0 {
		cfg.ClkHz = uint32(clkHz)
	}
	if baudRate != 0 {
		cfg.BaudRate = uint32(baudRate)
	}
	if restart {
		cfg.Restart = true
	}
	if disableControlPlane {
		cfg.DisableControlPlane = true
	}
	if reset {
		cfg.Reset = true
	}

	log := logging.New(logrus.InfoLevel, doc.Metadata.PluginConfig.RunID, "itm-collector")

	mainCtx, mainCancel := signal.NotifyContext(context.Background(),
		unix.SIGINT, unix.SIGTERM, unix.SIGABRT)
	defer mainCancel()

	// The probe driver that would attach to cfg.ProbeSelector/cfg.Chip
	// over cfg.Protocol is an external collaborator this repository
	// does not implement; transport.UnwiredProbe documents the seam a
	// deployment plugs a real J-Link/OpenOCD-style driver into.
	tr := transport.NewITM(transport.UnwiredProbe{}, cfg.StimulusPort, cfg.CommandDataAddr, cfg.CommandLenAddr,
		cfg.Restart, cfg.DisableControlPlane)
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
