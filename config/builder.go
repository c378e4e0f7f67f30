package config

import (
	"fmt"

	"github.com/jpalmerr/pulsewatch"
)

// BuildAddresses returns the direct addresses followed by every grid's
// expansion, in configuration order.
func BuildAddresses(cfg *Config) ([]string, error) {
	addrs := make([]string, 0, len(cfg.Addresses))
	addrs = append(addrs, cfg.Addresses...)

	for i, gc := range cfg.AddressGrids {
		expanded, err := pulsewatch.ExpandAddressGrid(gc.URLTemplate, gc.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("address_grids[%d]: %w", i, err)
		}
		addrs = append(addrs, expanded...)
	}

	return addrs, nil
}

// BuildOptions converts parsed configuration into SDK options.
//
// Notifiers are not included: building them may contact external services,
// so callers add [pulsewatch.WithNotifier] themselves.
func BuildOptions(cfg *Config) ([]pulsewatch.Option, error) {
	addrs, err := BuildAddresses(cfg)
	if err != nil {
		return nil, err
	}

	return []pulsewatch.Option{
		pulsewatch.WithAddresses(addrs...),
		pulsewatch.WithSuccessInterval(cfg.SuccessInterval()),
		pulsewatch.WithFailInterval(cfg.FailInterval()),
		pulsewatch.WithNotifyAfter(cfg.NotifyFailures),
		pulsewatch.WithRereportEvery(cfg.Rereport),
		pulsewatch.WithQuietRecovery(cfg.QuietRecovery),
		pulsewatch.WithProbeTimeout(cfg.ProbeTimeout.Duration()),
		pulsewatch.WithMaxConcurrency(cfg.MaxConcurrentProbes),
	}, nil
}
