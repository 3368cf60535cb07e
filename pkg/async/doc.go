// Package async provides a small generic Future used to expose blocking
// network calls as background operations and to await them with a context.
package async
