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

// Command line client for the ecpd daemon.
//
//	ecpctl [-addr host:port] command [args...]
//
// Commands: identify, id, debug, idcode, uid, read ADDR WORDS,
// write ADDR HEX, readio ADDR COUNT, writeio ADDR HEX, setio VALUE,
// console [a|b], upload ADDR FILE, run ADDR, sram FILE,
// flash OFFSET FILE, clear.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/ecpd"
	"github.com/google/ecpd/client"

	"github.com/golang/glog"
)

var (
	addrFlag    = flag.String("addr", "localhost:5000", "Daemon address")
	timeoutFlag = flag.Duration("timeout", 5*time.Second, "Connect timeout")
)

func init() {
	flag.Parse()
}

func number(s string) uint32 {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		glog.Fatalf("Bad number %q: %v", s, err)
	}
	return uint32(v)
}

func hexData(s string) []byte {
	data, err := hex.DecodeString(s)
	if err != nil {
		glog.Fatalf("Bad hex data %q: %v", s, err)
	}
	return data
}

func args(n int) []string {
	if flag.NArg() != n+1 {
		glog.Fatalf("%v expects %d argument(s)", flag.Arg(0), n)
	}
	return flag.Args()[1:]
}

func run(c *client.Client) error {
	switch flag.Arg(0) {
	case "identify":
		major, minor, err := c.Identify()
		if err != nil {
			return err
		}
		fmt.Printf("ecpd protocol %d.%d\n", major, minor)
	case "id", "debug", "idcode":
		read := map[string]func() (uint32, error){
			"id":     c.ReadId,
			"debug":  c.ReadDebug,
			"idcode": c.ReadIdCode,
		}[flag.Arg(0)]
		v, err := read()
		if err != nil {
			return err
		}
		fmt.Printf("%08x\n", v)
	case "uid":
		v, err := c.ReadUniqueId()
		if err != nil {
			return err
		}
		fmt.Printf("%016x\n", v)
	case "read":
		a := args(2)
		data, err := c.ReadMemory(number(a[0]), int(number(a[1])))
		if err != nil {
			return err
		}
		fmt.Print(hex.Dump(data))
	case "write":
		a := args(2)
		return c.WriteMemory(number(a[0]), hexData(a[1]))
	case "readio":
		a := args(2)
		data, err := c.ReadIO(number(a[0]), int(number(a[1])))
		if err != nil {
			return err
		}
		fmt.Print(hex.Dump(data))
	case "writeio":
		a := args(2)
		return c.WriteIO(number(a[0]), hexData(a[1]))
	case "setio":
		return c.SetIO(uint8(number(args(1)[0])))
	case "console":
		console := ecpd.ConsoleA
		if flag.NArg() > 1 && flag.Arg(1) == "b" {
			console = ecpd.ConsoleB
		}
		data, err := c.ReadConsole(console)
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
	case "upload":
		a := args(2)
		return c.Upload(number(a[0]), a[1])
	case "run":
		return c.Run(number(args(1)[0]))
	case "sram":
		return c.LoadSram(args(1)[0])
	case "flash":
		a := args(2)
		c.Progress = func() { fmt.Fprint(os.Stderr, ".") }
		defer fmt.Fprintln(os.Stderr)
		return c.ProgramFlash(number(a[0]), a[1])
	case "clear":
		return c.ClearFpga()
	default:
		return fmt.Errorf("Unknown command %q", flag.Arg(0))
	}
	return nil
}

func main() {
	defer glog.Flush()

	if flag.NArg() == 0 {
		glog.Fatal("Missing command")
	}
	c, err := client.Dial(*addrFlag, *timeoutFlag)
	if err != nil {
		glog.Fatal(err)
	}
	defer c.Close()

	if err = run(c); err != nil {
		glog.Fatalf("%v failed: %v", flag.Arg(0), err)
	}
}
