package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/bookfinder/internal/config"
	"github.com/lehigh-university-libraries/bookfinder/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries state shared by every subcommand. The service is built on
// first use so that commands which do not need it never touch config.
type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
	svc     *service.Service
}

func (a *app) service() (*service.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return nil, err
	}
	svc, err := service.New(cfg)
	if err != nil {
		return nil, err
	}
	a.svc = svc
	return svc, nil
}

func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "bookfinder",
		Short: "Find books from a typed query or a photo of a cover",
		Long: `Book Finder searches Open Library by title or author, or reads the text on
a book cover with OCR and tries the most promising lines as queries until one
returns books.

Configuration is read from bookfinder.yaml in the working directory or
~/.config/bookfinder/, and from BOOKFINDER_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			config.Setup(a.v, a.cfgFile)
			used, err := config.Read(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			if used != "" {
				slog.Debug("Using config file", "path", used)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Config file (default ./bookfinder.yaml or ~/.config/bookfinder/bookfinder.yaml)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newScanCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newEvalCmd(a))

	return cmd
}
