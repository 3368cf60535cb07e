// Package twitterkit is the entry point of the kit. A Core wires the session
// managers, the OAuth1a and OAuth2 token services, guest sessions, the sign-in
// client, per-session API clients and the session monitor from one Config.
//
//	var cfg twitterkit.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	core, err := twitterkit.New(ctx, cfg, twitterkit.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	defer core.Close()
//
//	if err := core.Bootstrap(ctx); err != nil {
//		return err
//	}
//	client, err := core.APIClient(ctx)
//
// Sessions persist in the store selected by TWITTER_STORE: a JSON file, memory,
// Redis, PostgreSQL or MongoDB. User sessions live under the "twittersession"
// key family and the guest session under "guestsession". Setting
// TWITTER_ENCRYPTION_KEY seals every stored value with AES-GCM.
package twitterkit
