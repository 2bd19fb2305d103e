// Command vidcache inspects and drives a local video cache from the shell.
//
// It resolves remote video URLs into cached local files, prefetches batches
// of URLs, and reports or trims the cache. Settings come from a TOML file
// (default ~/.config/vidcache/config.toml); run "vidcache config init" to
// write a sample.
package main
