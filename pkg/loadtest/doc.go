// Package loadtest drives many concurrent gate clients and reports
// round-trip latency percentiles.
//
// Engines are spawned with a fixed sleep between them. Each one connects,
// logs in, runs its rounds of load-player-data requests, optionally closes
// and resumes its session, dwells for a random time and closes. An engine
// whose login times out contributes no samples. Samples from all engines are
// sorted once at the end and read with Percentile, which picks
// sorted[floor(p*n)] without interpolation.
//
//	h := loadtest.New(cfg, loadtest.EngineFactory(&client.Config{
//	    Transport: &transport.Options{Address: "127.0.0.1:9000"},
//	}))
//	report, err := h.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	loadtest.WriteSummary(os.Stderr, report)
package loadtest
