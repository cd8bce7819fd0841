// Package config loads musicweb configuration.
//
// Configuration is read from a TOML file decoded over Default(), then
// overlaid with MUSICWEB_* environment variables (a .env file in the
// working directory is honoured), normalized and validated.
//
// Lookup order when no explicit path is given:
//
//	~/.config/musicweb/config.toml
//	./musicweb.toml
//
// When neither exists the defaults are used as-is. Create a commented
// starting point with:
//
//	musicweb config init
//
// # Formats
//
// The [[formats]] tables form the format catalog. The first entry must be
// the lossless reference encoding; leaving formats out selects the stock
// catalog (FLAC, MP3 320/V0/V2, Ogg Vorbis q8 and AAC).
package config
