// Package deviceapi provides an HTTP client for the modem's local web API.
//
// The modem firmware exposes a handful of JSON endpoints for its MQTT client
// (topic subscriptions, publishing, broker settings and connection status)
// plus the sensor, network-mode, WiFi-station and hotspot endpoints used by
// its built-in pages. This package wraps each one in a typed method.
//
// # Usage Example
//
//	client := deviceapi.NewClient("192.168.4.1", 80)
//	client.SetTimeout(3 * time.Second)
//
//	topics, err := client.ListTopics(ctx)
//	if err != nil {
//	    fmt.Println(deviceapi.FailureMessage("failed to load topics", err))
//	    return
//	}
//
// # Request Semantics
//
// Every call performs exactly one request bounded by the client's timeout.
// Nothing is retried or cached; the caller decides whether to try again.
// A reply counts as delivered only for HTTP 200 or 304.
//
// # Error Handling
//
// Failures are returned as *DeviceError and fall into four groups:
//   - request failed: network, timeout, connection refused, DNS, HTTP status
//   - malformed response: the body did not decode (ErrTypeParse)
//   - server reported failure: the device answered success:false (ErrTypeServer)
//   - validation: input rejected locally before any request (ErrTypeValidation)
//
// FailureMessage renders any of them as operator-facing text.
package deviceapi
