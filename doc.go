// Package flagkit is the client-side decision engine of a feature
// experimentation system.
//
// Given a configuration snapshot (the datafile), a user id and user
// attributes, it decides which variation of an experiment or which
// targeting rule of a feature flag the user receives. Decisions are
// deterministic: the same user and snapshot always yield the same result.
//
// Most hosts only need NewFromFile and the pkg/client API:
//
//	c, err := flagkit.NewFromFile("datafile.json")
//	if err != nil {
//		return err
//	}
//	d := c.CreateUserContext("user-1", map[string]any{"plan": "pro"}).Decide(ctx, "checkout")
//
// The building blocks live in pkg/: bucketing (hashing and traffic
// allocation), audience (condition evaluation), cache (LRU with TTL), cmab
// (contextual-bandit decisions), forced (forced-decision store), decision
// (the orchestrator), and adapters for Redis, PostgreSQL and MongoDB.
package flagkit
