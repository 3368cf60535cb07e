// Package cache provides a generic, mutex-guarded LRU map.
package cache
