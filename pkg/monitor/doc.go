// Package monitor samples dispatcher guard status on a schedule.
//
// A monitor watches anything with a Status() dispatch.Status method and
// hands periodic snapshots to a callback. Typical use is surfacing quota
// headroom and breaker state to logs or a health endpoint:
//
//	m, err := monitor.NewSafe(monitor.Config{
//		Source:   d,
//		Interval: 30 * time.Second,
//		OnSample: func(s monitor.Sample) {
//			log.Printf("read quota %d/%d, breaker %s",
//				s.Status.Read.Remaining, s.Status.Read.Limit,
//				s.Status.Breaker.State)
//		},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	m.Start()
//	defer m.Stop()
//
// Sampling can also follow a cron expression (with a seconds field)
// instead of a fixed interval, e.g. Cron: "0 * * * * *" to sample at the
// top of every minute.
package monitor
