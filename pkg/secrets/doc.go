// Package secrets encrypts persisted session values at rest.
//
//	key, _ := secrets.ParseKey(os.Getenv("TWITTER_ENCRYPTION_KEY"))
//	c, err := secrets.NewCipher(key, "twittersession")
//	sealed, err := c.Encrypt(plaintext)
package secrets
