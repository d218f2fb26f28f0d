// Package pg stores user profiles in PostgreSQL.
//
// Connect opens a pgx pool with retries, Migrate applies the embedded goose
// migrations, and ProfileStore implements profile.Store on top of the
// user_profile_decisions table:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//	store := pg.NewProfileStore(pool)
//
// Config is populated from PG_* environment variables with pkg/config.
package pg
