// Package server implements modem-emulator, a stand-in for the cellular
// modem's embedded web server.
//
// The emulator serves the same HTTP API as the firmware so modemctl can be
// developed and tested without hardware:
//
//	GET  /api/mqtt/topics            subscription list
//	POST /api/mqtt/topics/add        {topic}
//	POST /api/mqtt/topics/delete     {topic}
//	POST /api/mqtt/publish           {topic, message}
//	GET  /api/mqtt/settings          broker, username, password
//	POST /api/mqtt/settings/save     {broker, username, password}
//	GET  /api/mqtt/status            link state code and text
//	GET  /sensors/data               synthetic environment and GPS reading
//	GET  /network_mode               0 = 4G, 1 = WiFi station
//	POST /wifi_sta                   form: ssid, password
//	GET  /ws/messages                websocket feed of received messages
//
// Like the firmware, handled failures are answered with HTTP 200 and
// success:false, and every response carries Access-Control-Allow-Origin: *.
//
// # Broker Link
//
// The emulated device holds a real MQTT session through Eclipse Paho. Its
// connection state drives /api/mqtt/status, saving settings reconnects, and
// the topic list is resubscribed on every connect. Messages arriving on
// subscribed topics are kept for a short time and streamed to monitor
// clients over /ws/messages.
//
// An embedded mochi-mqtt broker can be started alongside, so a single
// process is enough for a complete loop:
//
//	modem-emulator --embedded-broker :1883 --broker mqtt://127.0.0.1:1883
//
// # Configuration
//
// Defaults come from EMULATOR_* environment variables, optionally loaded
// from a .env file. See Config.
package server
