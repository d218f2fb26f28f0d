// Package opensearch ships decision impressions to an OpenSearch cluster.
//
// New connects and probes the cluster, Healthcheck returns a reusable
// readiness probe, and Sink implements event.Sink by indexing each
// impression into Config.EventsIndex:
//
//	os, err := opensearch.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	c, err := client.New(provider, client.WithEventSink(opensearch.NewSink(os, cfg)))
//
// Config is populated from OPENSEARCH_* environment variables with pkg/config.
package opensearch
