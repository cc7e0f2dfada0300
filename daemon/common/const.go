// Package common holds path constants for the OS telemetry sources
// collectors read from. Centralizing them here keeps individual collectors
// free of scattered string literals and gives a single place to patch for
// alternate mount layouts.
package common

const (
	ProcStat      = "/proc/stat"
	ProcMeminfo   = "/proc/meminfo"
	ProcLoadavg   = "/proc/loadavg"
	ProcNetDev    = "/proc/net/dev"
	ProcNetTCP    = "/proc/net/tcp"
	ProcNetTCP6   = "/proc/net/tcp6"
	ProcNetUDP    = "/proc/net/udp"
	ProcNetUDP6   = "/proc/net/udp6"
	ProcDir       = "/proc"
	PressureCPU   = "/proc/pressure/cpu"
	PressureMem   = "/proc/pressure/memory"
	PressureIO    = "/proc/pressure/io"

	SysClassPowerSupply = "/sys/class/power_supply"
	SysClassHwmon       = "/sys/class/hwmon"
)
