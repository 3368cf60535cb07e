// Package mongo connects to MongoDB with the v2 driver and provides a
// session.Store backed by a single collection.
package mongo
