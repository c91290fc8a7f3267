// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Serves the ECP5 debug protocol for a target behind a JTAG adapter.
// Supported adapters: FTDI MPSSE (ftdi), Raspberry Pi GPIO (gpio) and a
// simulated target (sim).
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/ecpd"
	"github.com/google/ecpd/daemon"
	"github.com/google/ecpd/programmer"
	"github.com/google/ecpd/programmer/ecp5"
	"github.com/google/ecpd/sim"
	"github.com/google/ecpd/status"
	"github.com/google/ecpd/util"

	"github.com/golang/glog"
	"github.com/google/gousb"
	"golang.org/x/sync/errgroup"
)

var (
	portFlag         = flag.Int("port", daemon.DefaultConfig.Port, "First TCP port to bind")
	bindAttemptsFlag = flag.Int("bind-attempts", daemon.DefaultConfig.BindAttempts, "Consecutive ports tried")
	readTimeoutFlag  = flag.Duration("read-timeout", daemon.DefaultConfig.ReadTimeout, "Per frame read deadline, 0 disables")
	imageDirFlag     = flag.String("image-dir", "", "Restrict file commands to this directory")
	driverFlag       = flag.String("driver", "ftdi", "JTAG driver: ftdi, gpio or sim")
	httpFlag         = flag.String("http", "", "Status server address, empty disables")

	ftdiVidFlag       = flag.Uint("ftdi-vid", uint(ecpd.DefaultFtdiConfig.Vid), "FTDI USB vendor id")
	ftdiPidFlag       = flag.Uint("ftdi-pid", uint(ecpd.DefaultFtdiConfig.Pid), "FTDI USB product id")
	ftdiInterfaceFlag = flag.Int("ftdi-interface", ecpd.DefaultFtdiConfig.Interface, "FTDI channel, A is 0")
	ftdiDivisorFlag   = flag.Uint("ftdi-divisor", uint(ecpd.DefaultFtdiConfig.Divisor), "TCK divisor, TCK = 30MHz/(n+1)")

	gpioTckFlag = flag.Uint("gpio-tck", uint(ecpd.DefaultGpioConfig.Pins.TCK), "BCM pin for TCK")
	gpioTmsFlag = flag.Uint("gpio-tms", uint(ecpd.DefaultGpioConfig.Pins.TMS), "BCM pin for TMS")
	gpioTdiFlag = flag.Uint("gpio-tdi", uint(ecpd.DefaultGpioConfig.Pins.TDI), "BCM pin for TDI")
	gpioTdoFlag = flag.Uint("gpio-tdo", uint(ecpd.DefaultGpioConfig.Pins.TDO), "BCM pin for TDO")

	eraseBlockFlag = flag.Int("erase-block", 64, "Flash erase block size in KiB: 4, 32 or 64")
	bulkEraseFlag  = flag.Bool("bulk-erase", false, "Erase the whole flash before programming")
)

func init() {
	flag.Parse()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openTap() (ecpd.TapInterface, io.Closer) {
	switch *driverFlag {
	case "ftdi":
		conf := ecpd.DefaultFtdiConfig
		conf.Vid = gousb.ID(*ftdiVidFlag)
		conf.Pid = gousb.ID(*ftdiPidFlag)
		conf.Interface = *ftdiInterfaceFlag
		conf.Divisor = uint16(*ftdiDivisorFlag)
		dev, err := ecpd.OpenFtdiDevice(&conf)
		if err != nil {
			glog.Fatalf("Failed opening FTDI adapter: %v", err)
		}
		return dev, dev
	case "gpio":
		conf := ecpd.DefaultGpioConfig
		conf.Pins = ecpd.GpioPins{
			TCK: uint8(*gpioTckFlag),
			TMS: uint8(*gpioTmsFlag),
			TDI: uint8(*gpioTdiFlag),
			TDO: uint8(*gpioTdoFlag),
		}
		dev, err := ecpd.OpenGpioDevice(&conf)
		if err != nil {
			glog.Fatalf("Failed opening GPIO JTAG: %v", err)
		}
		return dev, dev
	case "sim":
		glog.Warning("Using the simulated target")
		return sim.NewTarget(), nopCloser{}
	}
	glog.Fatalf("Unknown driver %q", *driverFlag)
	return nil, nil
}

func main() {
	defer glog.Flush()

	tap, closer := openTap()
	defer closer.Close()

	var prog programmer.ProgrammerInterface
	if p, err := ecp5.NewProgrammer(tap); err != nil {
		glog.Warningf("FPGA programming disabled: %v", err)
	} else {
		glog.Infof("Found %v", p.Chip().Name)
		prog = p
	}

	conf := daemon.DefaultConfig
	conf.Port = *portFlag
	conf.BindAttempts = *bindAttemptsFlag
	conf.ReadTimeout = *readTimeoutFlag
	conf.ImageDir = *imageDirFlag
	conf.Flash.EraseBlockSize = *eraseBlockFlag << 10
	conf.Flash.BulkErase = *bulkEraseFlag

	broker := util.NewBroker()
	go broker.Start()
	defer broker.Stop()

	server := daemon.NewServer(conf, ecpd.NewUserRegister(tap, nil), prog, broker)
	if err := server.Listen(); err != nil {
		glog.Fatalf("Failed to listen: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(ctx)
	})
	if *httpFlag != "" {
		st := status.NewServer(*httpFlag, server, broker, *imageDirFlag)
		g.Go(func() error {
			return st.Run(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		glog.Errorf("Daemon failed: %v", err)
	}
	glog.Info("Daemon stopped")
}
