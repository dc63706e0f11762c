package project

import "fmt"

// Config represents the overall structure of the bfr.toml file.
type Config struct {
	Tools Tools     `toml:"tools"`
	Flash FlashInfo `toml:"flash"`
	Debug DebugInfo `toml:"debug"`
	Run   RunInfo   `toml:"run"`
}

// Tools holds the executable names of the external toolchain.
// Each one is resolved through PATH unless it contains a path separator.
type Tools struct {
	Make    string `toml:"make"`
	STFlash string `toml:"st_flash"`
	OpenOCD string `toml:"openocd"`
	GDB     string `toml:"gdb"`
}

// FlashInfo describes what st-flash writes and where.
type FlashInfo struct {
	Address string `toml:"address"` // Flash base address passed to st-flash write
	Image   string `toml:"image"`   // Raw binary, relative to the debug directory
}

// DebugInfo describes the flashrun debug session.
type DebugInfo struct {
	Dir            string   `toml:"dir"`        // Subfolder of a leaf holding the build output
	ELF            string   `toml:"elf"`        // ELF image loaded by gdb, relative to Dir
	GDBScript      string   `toml:"gdb_script"` // Relative paths resolve against the walk root
	OpenOCDConfigs []string `toml:"openocd_configs"`
}

// RunInfo describes the host-side test program started by "run".
type RunInfo struct {
	Program string `toml:"program"`
}

// Validate reports the first required setting left empty.
func (c *Config) Validate() error {
	required := []struct {
		key, value string
	}{
		{"tools.make", c.Tools.Make},
		{"tools.st_flash", c.Tools.STFlash},
		{"tools.openocd", c.Tools.OpenOCD},
		{"tools.gdb", c.Tools.GDB},
		{"flash.address", c.Flash.Address},
		{"flash.image", c.Flash.Image},
		{"debug.dir", c.Debug.Dir},
		{"debug.elf", c.Debug.ELF},
		{"debug.gdb_script", c.Debug.GDBScript},
		{"run.program", c.Run.Program},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s must not be empty", r.key)
		}
	}
	return nil
}

// NewConfig creates and returns a Config populated with the stock
// STM32F4 / ST-Link toolchain settings.
func NewConfig() *Config {
	return &Config{
		Tools: Tools{
			Make:    "make",
			STFlash: "st-flash",
			OpenOCD: "openocd",
			GDB:     "gdb-multiarch",
		},
		Flash: FlashInfo{
			Address: "0x08000000",
			Image:   "test.bin",
		},
		Debug: DebugInfo{
			Dir:            "Debug",
			ELF:            "test.elf",
			GDBScript:      "gdbscript",
			OpenOCDConfigs: []string{"interface/stlink.cfg", "target/stm32f4x.cfg"},
		},
		Run: RunInfo{
			Program: "./test",
		},
	}
}
