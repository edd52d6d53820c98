package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/modemctl/internal/discovery"
	"github.com/muurk/modemctl/internal/ui"
)

// scannedDevice is the JSON form of a discovery result
type scannedDevice struct {
	Name     string            `json:"name"`
	Hostname string            `json:"hostname"`
	Address  string            `json:"address"`
	Emulator bool              `json:"emulator"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func newScanCmd(c *cli) *cobra.Command {
	var (
		wait time.Duration
		save bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for modems on the network",
		Long: `Scan for modems using mDNS/DNS-SD discovery.

Lists every modem (and modem-emulator) advertising the _modemctl._tcp
service, with its address and firmware metadata.`,
		Example: `  # Scan with the configured discovery timeout
  modemctl scan

  # Longer scan for busy networks
  modemctl scan --wait 15s

  # Remember everything found in the device registry
  modemctl scan --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("wait") {
				wait = c.registry.Prefs().DiscoverTimeoutDuration()
			}

			if !c.out.JSON() {
				c.out.Printf("Scanning for modems (timeout: %s)...\n\n", wait)
			}
			devices, err := c.scan(wait)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			if save {
				saveScanned(c, devices)
			}

			results := make([]scannedDevice, 0, len(devices))
			for _, d := range devices {
				results = append(results, scannedDevice{
					Name:     d.Name,
					Hostname: d.Hostname,
					Address:  d.Address(),
					Emulator: d.IsEmulator(),
					Metadata: d.Metadata,
				})
			}

			return c.out.Emit(results, func() {
				if len(devices) == 0 {
					c.out.PrintWarning("No modems found",
						ui.Detail{Key: "Hint", Value: "Check the modem is powered and on this network"},
						ui.Detail{Key: "Hint", Value: "Try a longer --wait"},
						ui.Detail{Key: "Hint", Value: "Use --device to give an address directly"},
					)
					return
				}
				c.out.Printf("Found %d modem(s):\n\n", len(devices))
				for i, d := range devices {
					c.out.Printf("%d. %s\n", i+1, describeDevice(d))
					c.out.Printf("   Address:  %s\n", d.Address())
					if fw := d.GetMetadata("firmware"); fw != "" {
						c.out.Printf("   Firmware: %s\n", fw)
					}
					c.out.Newline()
				}
				c.out.Println("Use 'modemctl --device <address>' to open the console")
			})
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", discovery.DefaultScanTimeout, "How long to listen for answers")
	cmd.Flags().BoolVar(&save, "save", false, "Add found modems to the device registry")
	return cmd
}

func describeDevice(d *discovery.Device) string {
	name := d.Name
	if model := d.GetMetadata("model"); model != "" {
		name += " [" + model + "]"
	}
	if d.IsEmulator() {
		name += " (emulator)"
	}
	return name
}

// saveScanned adds unknown devices to the registry under their instance name
func saveScanned(c *cli, devices []*discovery.Device) {
	added := 0
	for _, d := range devices {
		if c.registry.GetDevice(d.Name) != nil {
			continue
		}
		if err := c.registry.AddDevice(d.Name, d.IP, d.Port); err != nil {
			c.errOut.Printf("Skipping %s: %v\n", d.Name, err)
			continue
		}
		c.registry.MarkSeen(d.Name, d.DiscoveredAt)
		added++
	}
	if added == 0 {
		return
	}
	if err := c.registry.Save(); err != nil {
		c.errOut.Printf("Failed to save device registry: %v\n", err)
		return
	}
	if !c.out.JSON() {
		c.out.Printf("Saved %d new device(s) to the registry\n\n", added)
	}
}
