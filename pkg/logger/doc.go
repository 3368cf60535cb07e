// Package logger builds *slog.Logger values for twitterkit components and the
// CLI. New applies functional options (format, level, output, static
// attributes). Registered context extractors add attributes pulled from each
// record's context.
//
// Library types never log unless given a logger; they fall back to Discard.
// Attribute helpers in attr.go keep key names consistent across packages.
package logger
