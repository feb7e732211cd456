package main

import (
	"escaperoom/internal/app"
	"escaperoom/internal/ui"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	envFile   string
	dataDir   string
	roomsPath string
	storage   string
	logPath   string
	logLevel  string
	theme     string
	width     int
}

// cli carries what every subcommand needs once the root has wired the app.
type cli struct {
	flags    globalFlags
	app      *app.App
	renderer *ui.Renderer
}

func newCLI() (*cli, *cobra.Command) {
	c := &cli{}
	root := &cobra.Command{
		Use:           "escaperoom",
		Short:         "Play the five-room escape game from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&c.flags.envFile, "env-file", "", "load variables from this .env file (default .env)")
	f.StringVar(&c.flags.dataDir, "data-dir", "", "directory for local progress data")
	f.StringVar(&c.flags.roomsPath, "rooms", "", "room catalog YAML (default built-in rooms)")
	f.StringVar(&c.flags.storage, "storage", "", "progress backend: memory, sqlite, postgres or redis")
	f.StringVar(&c.flags.logPath, "log", "", "write JSON logs to this file")
	f.StringVar(&c.flags.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&c.flags.theme, "theme", "modern_arcade", "modern_arcade, retro_terminal or plain")
	f.IntVar(&c.flags.width, "width", 100, "terminal width used for layout")

	root.AddCommand(
		c.roomsCmd(),
		c.statusCmd(),
		c.startCmd(),
		c.enterCmd(),
		c.submitCmd(),
		c.hintCmd(),
		c.eventCmd(),
		c.resetCmd(),
		c.devCmd(),
	)
	return c, root
}

// close releases the app opened for the command, whether or not the
// command itself succeeded.
func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func (c *cli) open(cmd *cobra.Command) error {
	var files []string
	if c.flags.envFile != "" {
		files = append(files, c.flags.envFile)
	}
	cfg, err := app.LoadConfig(files...)
	if err != nil {
		return err
	}
	if c.flags.dataDir != "" {
		cfg.DataDir = c.flags.dataDir
		cfg.Storage.SQLitePath = ""
	}
	if c.flags.roomsPath != "" {
		cfg.RoomsPath = c.flags.roomsPath
	}
	if c.flags.storage != "" {
		cfg.Storage.Backend = c.flags.storage
	}
	if c.flags.logPath != "" {
		cfg.LogPath = c.flags.logPath
	}
	if c.flags.logLevel != "" {
		cfg.LogLevel = c.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	c.app = a
	c.renderer = ui.NewRenderer(ui.ThemeForVariant(c.flags.theme), c.flags.width)
	return nil
}
