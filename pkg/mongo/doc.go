// Package mongo stores user profiles in MongoDB.
//
// New connects with retries and Healthcheck exposes a ping probe.
// ProfileStore implements profile.Store with one document per user:
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := mongo.NewProfileStore(client, cfg)
//
// Config is populated from MONGODB_* environment variables with pkg/config.
package mongo
