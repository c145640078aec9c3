// ABOUTME: Appearance change notification for platforms without a native source.
// ABOUTME: Polls the mode querier on the configured interval.

//go:build !darwin && !linux

package main

func defaultSignalSource(querier ModeQuerier, cfg Config) SignalSource {
	return &PollingSignalSource{Querier: querier, Interval: cfg.PollEvery()}
}
