// Package config manages the modemctl device registry.
//
// The registry is a YAML file holding named modem profiles (address, port,
// last contact time) and console preferences such as the status poll
// interval and the narrow-layout width. It follows OS conventions for its
// location:
//   - Linux: $XDG_CONFIG_HOME/modemctl/devices.yaml or $HOME/.config/modemctl/devices.yaml
//   - macOS: $HOME/.config/modemctl/devices.yaml
//   - Windows: %LOCALAPPDATA%\modemctl\devices.yaml
//
// MODEMCTL_CONFIG_DIR overrides the directory on every platform.
//
// # Security
//
// The registry NEVER stores broker credentials or WiFi passwords. Those
// belong to the modem and are read from it or prompted for when needed.
//
// # Usage Example
//
//	reg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := reg.AddDevice("lab", "192.168.4.1", 80); err != nil {
//	    log.Fatal(err)
//	}
//	if err := reg.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// Saves are atomic: the file is written to a temporary sibling and renamed
// into place.
package config
