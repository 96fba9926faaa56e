package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"ember/kernel"
	"ember/mcu"
	"ember/port"
	"ember/sim"
	"ember/tasks"
)

func main() {
	var (
		boardPath = flag.String("board", "", "Board profile YAML (default: built-in 16 MHz profile).")
		headless  = flag.Bool("headless", false, "Run without a window.")
		hz        = flag.Int("hz", 60, "Host frame rate in headless mode.")
		ticks     = flag.Uint64("ticks", 0, "Stop after N machine ticks in headless mode (0 = run forever).")
		coop      = flag.Bool("coop", false, "Cooperative scheduling: switch tasks only on explicit yields.")
		wdtTick   = flag.Bool("wdt-tick", false, "Use the watchdog timer as the tick source.")
		dump      = flag.Bool("dump", false, "Dump machine state on exit.")
		stdin     = flag.Bool("stdin", false, "Feed terminal input to the UART (headless only).")
	)
	flag.Parse()

	board := sim.DefaultBoard()
	if *boardPath != "" {
		b, err := sim.LoadBoard(*boardPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		board = b
	}

	m := mcu.New(board.MachineConfig())

	var src port.TickSource
	if *wdtTick {
		src = port.NewWatchdogTick(board.TickHz)
	} else {
		src = port.NewTimerTick(board.ClockHz, board.TickHz)
	}
	k := kernel.New(m, kernel.Config{
		Port: port.Config{TickSource: src, Preemptive: !*coop},
	})

	spawn := func(name string, fn kernel.TaskFunc, param uint16) {
		if _, err := k.Spawn(name, fn, 256, param); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	spawn("blink", tasks.Blink(k, uint64(board.TickHz/2)), 0)
	spawn("report", tasks.Reporter(k), 0)
	spawn("echo", tasks.Echo(k), 0)

	s := sim.New(board, k)
	if *dump {
		defer s.DumpState()
	}

	go k.Start()

	if *headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err := sim.RunHeadless(ctx, s, sim.HeadlessConfig{
			Hz:          *hz,
			Ticks:       *ticks,
			Interactive: *stdin,
		})
		if err != nil && err != context.Canceled {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := sim.RunWindow(s); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
