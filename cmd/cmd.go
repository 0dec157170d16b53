// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// snapshotFlags select which stored dataset a command reads.
func snapshotFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "snapshot",
			Usage: "Snapshot ID to load (default: latest)",
		},
		&cli.StringFlag{
			Name:  "user",
			Usage: "Only consider snapshots for this Spotify user ID",
		},
	}
}

// viewportFlags override the configured viewport.
func viewportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:  "width",
			Usage: "Viewport width in pixels (default: universe.viewport_width)",
		},
		&cli.FloatFlag{
			Name:  "height",
			Usage: "Viewport height in pixels (default: universe.viewport_height)",
		},
	}
}

// focusFlags pick the focused planet by index or name.
func focusFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "focus",
			Aliases: []string{"f"},
			Usage:   "Index of the focused artist (0 is the first planet)",
		},
		&cli.StringFlag{
			Name:    "artist",
			Aliases: []string{"a"},
			Usage:   "Name of the focused artist (overrides --focus)",
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	var all []cli.Flag
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

// setupCommand handles configuration and database setup
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the config (default: $UNIVERSE_CONFIG or config.toml)",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles Spotify authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.SpotifyAuth,
			},
			{
				Name:   "status",
				Usage:  "Show stored credentials",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored Spotify token",
				Action: r.AuthLogout,
			},
		},
	}
}

// universeCommand handles fetching, viewing and exporting the artist universe
func universeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "universe",
		Aliases: []string{"u"},
		Usage:   "Build and explore the artist universe",
		Commands: []*cli.Command{
			{
				Name:  "fetch",
				Usage: "Fetch top artists and scrobble counts, then store a snapshot",
				Flags: flags([]cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Number of top artists to fetch (default: universe.top_artists)",
					},
					&cli.StringFlag{
						Name:  "time-range",
						Usage: "Spotify time range: short_term, medium_term or long_term",
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Concurrent enrichment workers (default: fetch.workers)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Remote lookups per second (default: fetch.rate_limit)",
					},
					&cli.BoolFlag{
						Name:  "skip-images",
						Usage: "Do not download artist images",
					},
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "Ignore cached scrobble counts",
					},
				}, outputFlags()),
				Action: r.UniverseFetch,
			},
			{
				Name:  "show",
				Usage: "Explore the universe in the terminal",
				Flags: flags([]cli.Flag{
					&cli.BoolFlag{
						Name:  "fetch",
						Usage: "Fetch live data instead of loading a snapshot",
					},
					&cli.StringFlag{
						Name:  "log-file",
						Usage: "Where the TUI writes its logs",
						Value: "./tmp/universe-tui.log",
					},
				}, snapshotFlags()),
				Action: r.UniverseShow,
			},
			{
				Name:   "layout",
				Usage:  "Print the planet layout for a focused artist",
				Flags:  flags(focusFlags(), viewportFlags(), snapshotFlags(), outputFlags()),
				Action: r.UniverseLayout,
			},
			{
				Name:      "compare",
				Usage:     "Compare two artists side by side",
				ArgsUsage: "<selected> [target]",
				Flags:     flags(snapshotFlags(), outputFlags()),
				Action:    r.UniverseCompare,
			},
			{
				Name:  "render",
				Usage: "Render the universe (or a comparison) to SVG",
				Flags: flags([]cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "universe.svg",
					},
					&cli.StringFlag{
						Name:  "compare",
						Usage: "Render a comparison of the focused artist against this artist",
					},
					&cli.BoolFlag{
						Name:  "images",
						Usage: "Embed artist images",
					},
				}, focusFlags(), viewportFlags(), snapshotFlags()),
				Action: r.UniverseRender,
			},
			{
				Name:  "export",
				Usage: "Export a snapshot as JSON, CSV, Markdown or text",
				Flags: flags([]cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "json, csv, markdown or txt",
						Value: "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: universe.<ext>)",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title for Markdown and text exports",
						Value: "My Universe",
					},
				}, snapshotFlags()),
				Action: r.UniverseExport,
			},
			{
				Name:  "snapshots",
				Usage: "List stored snapshots",
				Flags: flags([]cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of snapshots to list",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "Only list snapshots for this Spotify user ID",
					},
				}, outputFlags()),
				Action: r.UniverseSnapshots,
			},
		},
	}
}

// cacheCommand handles the scrobble count cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the cached scrobble counts",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached artists",
				Flags: flags([]cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Only show this artist",
					},
					&cli.IntFlag{
						Name:  "min-count",
						Usage: "Only show artists with at least this many scrobbles",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of artists to list",
					},
				}, outputFlags()),
				Action: r.CacheList,
			},
			{
				Name:  "clear",
				Usage: "Remove cached artists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Only remove this artist",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// serveCommand runs the web interface and JSON API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web interface and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
			&cli.StringSliceFlag{
				Name:  "cors-origin",
				Usage: "Allowed CORS origin (repeatable, default: *)",
			},
			&cli.StringFlag{
				Name:  "static",
				Usage: "Directory served under /static/",
				Value: ".",
			},
		},
		Action: r.Serve,
	}
}
