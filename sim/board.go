package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ember/mcu"
)

// Board is a machine profile: clock, memory and tick configuration for
// one simulated part. Profiles load from YAML; missing fields keep the
// default profile's values.
type Board struct {
	Name       string `yaml:"name"`
	ClockHz    uint32 `yaml:"clock_hz"`
	TickHz     uint32 `yaml:"tick_hz"`
	SRAMBytes  int    `yaml:"sram_bytes"`
	ExtendedPC bool   `yaml:"extended_pc"`
	RealTime   bool   `yaml:"real_time"`
}

// DefaultBoard is a 16 MHz part with 2 KiB of SRAM and a 1000 Hz tick.
func DefaultBoard() Board {
	return Board{
		Name:      "mega328p",
		ClockHz:   16_000_000,
		TickHz:    1000,
		SRAMBytes: 2048,
		RealTime:  true,
	}
}

// LoadBoard reads a board profile from a YAML file.
func LoadBoard(path string) (Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Board{}, fmt.Errorf("board: %w", err)
	}
	b := DefaultBoard()
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Board{}, fmt.Errorf("board %s: %w", path, err)
	}
	if err := b.validate(); err != nil {
		return Board{}, fmt.Errorf("board %s: %w", path, err)
	}
	return b, nil
}

func (b Board) validate() error {
	if b.ClockHz == 0 {
		return fmt.Errorf("clock_hz must be set")
	}
	if b.TickHz == 0 {
		return fmt.Errorf("tick_hz must be set")
	}
	if b.SRAMBytes < 256 {
		return fmt.Errorf("sram_bytes %d too small", b.SRAMBytes)
	}
	return nil
}

// MachineConfig translates the profile into a machine configuration.
func (b Board) MachineConfig() mcu.Config {
	return mcu.Config{
		ClockHz:    b.ClockHz,
		SRAMBytes:  b.SRAMBytes,
		ExtendedPC: b.ExtendedPC,
		RealTime:   b.RealTime,
	}
}
