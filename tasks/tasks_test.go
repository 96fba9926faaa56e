package tasks

import (
	"bytes"
	"testing"
	"time"

	"ember/kernel"
	"ember/mcu"
)

func testKernel(t *testing.T) *kernel.Kernel {
	t.Helper()
	m := mcu.New(mcu.Config{ClockHz: 16_000_000, SRAMBytes: 2048})
	return kernel.New(m, kernel.Config{TickHz: 1000})
}

func TestBlinkTogglesLED(t *testing.T) {
	k := testKernel(t)
	if _, err := k.Spawn("blink", Blink(k, 5), 256, 0); err != nil {
		t.Fatalf("Spawn error: %v", err)
	}

	led := k.Machine().LED()
	go k.Start()

	deadline := time.After(5 * time.Second)
	for !led.IsHigh() {
		select {
		case <-deadline:
			t.Fatal("LED never toggled high")
		case <-time.After(time.Millisecond):
		}
	}
	for led.IsHigh() {
		select {
		case <-deadline:
			t.Fatal("LED never toggled back low")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestBlinkParamOverridesPeriod(t *testing.T) {
	k := testKernel(t)
	if _, err := k.Spawn("blink", Blink(k, 1_000_000), 256, 3); err != nil {
		t.Fatalf("Spawn error: %v", err)
	}

	led := k.Machine().LED()
	go k.Start()

	// With the configured period no toggle could happen this soon; the
	// parameter must have shortened it.
	deadline := time.After(5 * time.Second)
	for !led.IsHigh() {
		select {
		case <-deadline:
			t.Fatal("LED never toggled with short parameter period")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestEchoRoundTrip(t *testing.T) {
	k := testKernel(t)
	u := k.Machine().UART()
	u.FeedRX([]byte("hi"))

	if _, err := k.Spawn("echo", Echo(k), 256, 0); err != nil {
		t.Fatalf("Spawn error: %v", err)
	}
	go k.Start()

	var got bytes.Buffer
	deadline := time.After(5 * time.Second)
	for !bytes.Contains(got.Bytes(), []byte("hi")) {
		select {
		case <-deadline:
			t.Fatalf("echo output %q, want to contain %q", got.Bytes(), "hi")
		case <-time.After(time.Millisecond):
			got.Write(u.DrainTX())
		}
	}
}

func TestReporterWritesUptime(t *testing.T) {
	k := testKernel(t)
	u := k.Machine().UART()

	if _, err := k.Spawn("report", Reporter(k), 256, 0); err != nil {
		t.Fatalf("Spawn error: %v", err)
	}
	go k.Start()

	var got bytes.Buffer
	deadline := time.After(10 * time.Second)
	for !bytes.Contains(got.Bytes(), []byte("uptime 1s")) {
		select {
		case <-deadline:
			t.Fatalf("reporter output %q, want an uptime line", got.Bytes())
		case <-time.After(time.Millisecond):
			got.Write(u.DrainTX())
		}
	}
}
