// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

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

func lexiconFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "lang",
			Usage: "Built-in lexicon language (es, en)",
		},
		&cli.StringFlag{
			Name:  "lexicon",
			Usage: "Path to a TOML lexicon file",
		},
	}
}

// classifyCommand prints the intent for a command without contacting Spotify.
func classifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Aliases:   []string{"parse"},
		Usage:     "Show how a command is understood",
		ArgsUsage: "<text>",
		Flags:     append(outputFlags(), lexiconFlags()...),
		Action:    r.Classify,
	}
}

// doCommand classifies and executes a single command.
func doCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "do",
		Usage:     "Classify a command and run it on Spotify",
		ArgsUsage: "<text>",
		Flags:     append(outputFlags(), lexiconFlags()...),
		Action:    r.Do,
	}
}

// listenCommand runs commands read line by line.
func listenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Run commands read line by line from stdin or a file",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read commands from file instead of stdin",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print events as JSON lines",
			},
			&cli.BoolFlag{
				Name:  "events",
				Usage: "Print every event, not only results",
			},
			&cli.BoolFlag{
				Name:  "drop",
				Usage: "Drop commands that arrive while the queue is full instead of waiting",
			},
		}, lexiconFlags()...),
		Action: r.Listen,
	}
}

func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Search for a song and play it now",
		ArgsUsage: "<song>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "artist",
				Aliases:  []string{"a"},
				Usage:    "Artist name",
				Required: true,
			},
		}, outputFlags()...),
		Action: r.Play,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search Spotify for tracks",
		ArgsUsage: "<query>",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of tracks to return",
				Value: 5,
			},
		}, outputFlags()...),
		Action: r.Search,
	}
}

func pauseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "pause",
		Usage:  "Pause playback",
		Action: r.Pause,
	}
}

func resumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "resume",
		Aliases: []string{"continue"},
		Usage:   "Resume playback",
		Action:  r.Resume,
	}
}

func nextCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "next",
		Aliases: []string{"skip"},
		Usage:   "Skip to the next track",
		Action:  r.Next,
	}
}

func previousCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "previous",
		Aliases: []string{"prev"},
		Usage:   "Go back to the previous track",
		Action:  r.Previous,
	}
}

func volumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "volume",
		Aliases:   []string{"vol"},
		Usage:     "Set the volume (0-100), or step it with +N / -N",
		ArgsUsage: "<percent>",
		Action:    r.Volume,
	}
}

func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List playback devices",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "transfer",
				Usage: "Move playback to the device with this ID",
			},
			&cli.BoolFlag{
				Name:  "play",
				Usage: "Start playing after a transfer",
			},
		}, outputFlags()...),
		Action: r.Devices,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show what is playing",
		Flags:  outputFlags(),
		Action: r.Status,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify in the browser and store the tokens",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check the stored tokens against the Spotify profile endpoint",
				Flags:  outputFlags(),
				Action: r.AuthStatus,
			},
		},
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write an example config file to the --config path",
				Action: r.SetupConfig,
			},
		},
	}
}

// historyCommand handles the command log.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect executed commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent commands",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "action",
						Usage: "Only show this action (e.g. play_song, pause)",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only show this status (executed, ignored, failed)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of commands to show",
						Value: 20,
					},
				}, outputFlags()...),
				Action: r.HistoryList,
			},
			{
				Name:  "export",
				Usage: "Export the command history",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (csv, markdown, text, json)",
						Value: "markdown",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path, or - for stdout",
					},
				},
				Action: r.HistoryExport,
			},
			{
				Name:   "stats",
				Usage:  "Count commands per action",
				Flags:  outputFlags(),
				Action: r.HistoryStats,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Interactive terminal UI",
		Flags:  lexiconFlags(),
		Action: r.TUI,
	}
}
