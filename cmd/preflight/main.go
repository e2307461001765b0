// cmd/preflight/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/multierr"

	"github.com/EugeneVC/web-monitor/internal/config"
	"github.com/EugeneVC/web-monitor/internal/probe"
)

func main() {
	cfgPath := flag.String("config", "web_monitor.yaml", "path to the YAML config file")
	flag.Parse()

	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fail(err.Error())
	}

	sites, siteErrs := cfg.MonitoredSites()
	for _, e := range multierr.Errors(siteErrs) {
		warn(e.Error() + " (site will be skipped)")
	}

	factory := probe.DefaultFactory()
	valid := 0
	for _, s := range sites {
		kind, err := factory.Kind(s.URI)
		if err != nil {
			warn(fmt.Sprintf("%s: %v (site will be skipped)", s.Name, err))
			continue
		}
		valid++
		ok(fmt.Sprintf("%s -> %s task, every %s, timeout %s", s.Name, kind, s.CheckPeriod, s.Timeout))
	}

	if cfg.Dashboard.Addr == "" {
		warn("dashboard.addr empty; dashboard disabled.")
	} else if len(cfg.Dashboard.PublicAPIKeys) == 0 {
		warn("dashboard.public_api_keys empty; dashboard readable without a key.")
	}
	if cfg.Database.URL == "" {
		warn("database.url empty; postgres sink disabled.")
	}

	if valid == 0 {
		fail("no valid sites configured")
	}
	ok(fmt.Sprintf("preflight passed (%d of %d sites)", valid, len(cfg.Sites)))
}
