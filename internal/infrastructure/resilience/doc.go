/*
Package resilience provides a circuit breaker for calls into unreliable
external tools.

The device bridge wraps every adb invocation in a Breaker. When the adb
server is missing or hung, the breaker opens after a run of failures and
later calls fail fast with ErrCircuitOpen instead of waiting out the
command timeout on every supervisor poll.

	breaker := resilience.New("adb", resilience.Settings{
		Failures: 5,
		Timeout:  10 * time.Second,
	})

	err := breaker.Execute(func() error {
		out, err = runner.Run(ctx, "adb", "devices", "-l")
		return err
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[probe ok]-> Closed
	                                           |
	                                     [probe failed]
	                                           v
	                                         Open
*/
package resilience
