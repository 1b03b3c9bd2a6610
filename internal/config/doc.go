// Package config loads gateprobe configuration files.
//
// A file is JSON or YAML, chosen by its extension. Fields left out keep
// their defaults; command-line flags override file values.
//
//	target:
//	  address: 10.0.0.5:9000
//	  network: ws
//	  websocket_json: true
//	load:
//	  clients: 2000
//	  spawn_delay: 1ms
//	  rounds: 3
//	  round_interval: 500ms
//	  resume_cycles: 1
//	  use_ticket_store: true
//	client:
//	  heartbeat_interval: 5s
//	  platform: android
//	report:
//	  json: report.json
//	  s3:
//	    bucket: perf-reports
//	metrics:
//	  address: ":9100"
//	log:
//	  level: debug
//
// # Usage
//
//	f, err := config.Load("gateprobe.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	h := loadtest.New(f.Harness(), loadtest.EngineFactory(f.Engine()))
package config
