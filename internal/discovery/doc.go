// Package discovery provides mDNS-based discovery of modems on the local
// network.
//
// Modems (and modem-emulator) advertise themselves as "_modemctl._tcp"
// services. TXT records carry optional metadata such as "model",
// "firmware" and "emulator=true".
//
// # Usage Example
//
//	devices, err := discovery.ScanForDevices(5 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range devices {
//	    fmt.Printf("%s at %s\n", d.Name, d.BaseURL())
//	}
//
// The emulator side registers itself with Advertise and withdraws with
// Shutdown.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
