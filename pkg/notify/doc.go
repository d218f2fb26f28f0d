// Package notify delivers decision notifications to listeners.
//
// A Broadcaster fans values out to any number of subscriptions without ever
// blocking the publisher; slow subscribers lose values and are dropped. The
// client publishes a Decision for every flag decision and every legacy
// experiment activation when configured with client.WithDecisionNotifications:
//
//	decisions := notify.NewBroadcaster[notify.Decision](64)
//	c, _ := client.New(provider, client.WithDecisionNotifications(decisions))
//
//	sub := decisions.Subscribe(ctx)
//	go func() {
//		for d := range sub.C() {
//			log.Printf("%s -> %s", d.FlagKey, d.VariationKey)
//		}
//	}()
package notify
