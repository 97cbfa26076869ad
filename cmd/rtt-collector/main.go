// Command rtt-collector streams a live TraceRecorder session off a
// SEGGER RTT up-channel into Modality. Grounded on the teacher's
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
	c := config.NewCLIFlags("rtt-collector")
	var elfFile, probeSelector, chip, setupOnBreakpoint string
	var upChannel, downChannel uint
	var controlBlockAddr uint64
	var controlBlockAddrSet bool
	var pollIntervalMs, bufferSize, attachTimeoutMs uint
	var restart, disableControlPlane, attachUnderReset bool
	c.FlagSet.StringVar(&elfFile, "elf-file", "", "ELF file for the target firmware.")
	c.FlagSet.StringVar(&probeSelector, "probe-selector", "", "Debug probe selector (VID:PID:serial).")
	c.FlagSet.StringVar(&chip, "chip", "", "Target chip name.")
	c.FlagSet.StringVar(&setupOnBreakpoint, "setup-on-breakpoint", "", "Symbol to halt at before resolving the RTT control block.")
	c.FlagSet.UintVar(&upChannel, "up-channel", 0, "RTT up-channel index carrying trace bytes.")
	c.FlagSet.UintVar(&downChannel, "down-channel", 0, "RTT down-channel index carrying control-plane commands.")
	c.FlagSet.Uint64Var(&controlBlockAddr, "control-block-addr", 0, "Fixed _SEGGER_RTT control block address, skipping RAM-scan discovery.")
	c.FlagSet.UintVar(&pollIntervalMs, "poll-interval-ms", 0, "RTT up-channel poll interval in milliseconds. Defaults to 10.")
	c.FlagSet.UintVar(&bufferSize, "buffer-size", 0, "Bytes read per RTT poll. Defaults to 4096.")
	c.FlagSet.UintVar(&attachTimeoutMs, "attach-timeout-ms", 0, "Timeout for RTT control block discovery, in milliseconds. Defaults to 5000.")
	c.FlagSet.BoolVar(&restart, "restart", false, "Issue STOP then START on attach.")
	c.FlagSet.BoolVar(&disableControlPlane, "disable-control-plane", false, "Never write CMD_SET_ACTIVE.")
	c.FlagSet.BoolVar(&attachUnderReset, "attach-under-reset", false, "Hold the target in reset while attaching the probe.")

	if err := c.Parse(os.Args[1:]); err != nil {
		logrus.Errorf("parsing arguments: %v", err)
		return cliexit.ParseError
	}
	controlBlockAddrSet = controlBlockAddr != 0

	doc, err := config.LoadRttCollector(c)
	if err != nil {
		logrus.Errorf("loading configuration: %v", err)
		return cliexit.ForError(err)
	}
	cfg := &doc.Metadata.RttCollectorConfig
	if elfFile != "" {
		cfg.ElfFile = elfFile
	}
	if probeSelector != "" {
		cfg.ProbeSelector = probeSelector
	}
	if chip != "" {
		cfg.Chip = chip
	}
	if setupOnBreakpoint != "" {
		cfg.SetupOnBreakpoint = setupOnBreakpoint
	}
	if upChannel != 0 {
		cfg.UpChannel = uint32(upChannel)
	}
	if downChannel != 0 {
		cfg.DownChannel = uint32(downChannel)
	}
	if controlBlockAddrSet {
		cfg.ControlBlockAddr = &controlBlockAddr
	}
	if pollIntervalMs != 0 {
		cfg.PollInterval = config.Duration(time.Duration(pollIntervalMs) * time.Millisecond)
	}
	if bufferSize != 0 {
		cfg.BufferSize = uint32(bufferSize)
	}
	if attachTimeoutMs != 0 {
		cfg.AttachTimeout = config.Duration(time.Duration(attachTimeoutMs) * time.Millisecond)
	}
	if restart {
		cfg.Restart = true
	}
	if disableControlPlane {
		cfg.DisableControlPlane = true
	}
	if attachUnderReset {
		cfg.AttachUnderReset = true
	}

	log := logging.New(logrus.InfoLevel, doc.Metadata.PluginConfig.RunID, "rtt-collector")

	mainCtx, mainCancel := signal.NotifyContext(context.Background(),
		unix.SIGINT, unix.SIGTERM, unix.SIGABRT)
	defer mainCancel()

	// The probe driver that would attach to cfg.ProbeSelector/cfg.Chip
	// and scan RAM for the RTT control block is an external
	// collaborator this repository does not implement;
	// transport.UnwiredProbe documents the seam a deployment plugs a
	// real J-Link/OpenOCD-style driver into.
	tr := transport.NewRTT(transport.UnwiredProbe{}, cfg.UpChannel, cfg.DownChannel, cfg.ControlBlockAddr,
		cfg.PollInterval.Duration(), cfg.BufferSize, cfg.AttachTimeout.Duration(), cfg.SetupOnBreakpoint,
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
