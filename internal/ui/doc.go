// Package ui renders the non-interactive output of the modemctl commands.
//
// The console TUI lives in internal/console/tui. Everything here follows a
// "print once and exit" pattern: a command header naming the modem, result
// boxes for success and failure, numbered lists, fill gauges, and y/N
// confirmation prompts. All of it goes through a Printer, which can switch
// to indented JSON for --format json.
//
// # Usage Pattern
//
//	p := ui.NewPrinter(os.Stdout, ui.FormatText)
//	p.PrintHeader("Subscription Topics", "192.168.4.1:80")
//	p.PrintList(topics, "No topics subscribed")
//
//	if err != nil {
//	    p.PrintError("Could not add topic", err, deviceapi.GetTroubleshootingHint(err))
//	}
//
// # Logging Integration
//
// zap logging is silent unless MODEMCTL_LOG_LEVEL is set, so the curated
// output here is not interleaved with log lines by default.
package ui
