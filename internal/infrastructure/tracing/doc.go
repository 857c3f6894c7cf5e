/*
Package tracing correlates control API requests with the log lines they
produce.

Each request gets a span. A caller may pass X-Trace-ID (and X-Span-ID) to
join an existing trace; otherwise a new trace id is generated. Both ids are
returned in the response headers and carried in the request context, where
the request logger picks them up.

Completed spans go through a buffered channel to a collector goroutine that
logs them at debug level, or at warn when the handler recorded an error.
When the buffer is full spans are dropped.

	tracer := tracing.New("mirrordeck", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "adb.connect")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
