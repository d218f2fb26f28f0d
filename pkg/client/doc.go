// Package client is the host-facing API of the decision engine.
//
// A Client reads configuration snapshots from a datafile.Provider and wires
// the bucketer, audience evaluator, contextual-bandit service and optional
// user profile store into one decision service:
//
//	snapshot, err := datafile.Load("datafile.json")
//	if err != nil {
//		return err
//	}
//	c, err := client.New(datafile.NewStaticProvider(snapshot),
//		client.WithProfileStore(store),
//		client.WithEventSink(sink),
//	)
//	if err != nil {
//		return err
//	}
//
//	user := c.CreateUserContext("user-1", map[string]any{"plan": "pro"})
//	d := user.Decide(ctx, "checkout", decide.IncludeReasons)
//	if d.Enabled {
//		label, _ := d.String("label")
//		// ...
//	}
//
// Decisions never fail: problems are reported through Decision.Reasons.
// Every decision with a variation sends one impression to the configured
// event.Sink unless DISABLE_DECISION_EVENT is set.
//
// Settings such as CMAB cache size and prediction endpoint are read from
// DECISION_* environment variables by LoadConfig and passed in WithConfig.
package client
