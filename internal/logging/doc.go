// Package logging builds the slog logger both binaries use, from the
// logging section of the config. Text output is one colorized line per
// record; json output is slog's JSON handler.
package logging
