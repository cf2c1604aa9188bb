package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/Yates-Labs/spoke/internal/appconfig"
	"github.com/Yates-Labs/spoke/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     appconfig.Config
)

var rootCmd = &cobra.Command{
	Use:   "spoke",
	Short: "Spoke - Citi Bike support assistant and trip analytics",
	Long: `Spoke answers customer questions about Citi Bike policies using retrieval
over indexed policy documents, and explores trip history through charts and
natural-language questions.

Configuration is read from an optional config file, environment variables
(OPENAI_API_KEY, MILVUS_ADDRESS, WAREHOUSE_DSN, ...) and flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := appconfig.Load(viper.GetViper(), cfgFile, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		cfg = loaded

		var console io.Writer
		if v, err := cmd.Flags().GetBool("verbose"); err == nil && v {
			console = os.Stderr
		}
		if err := logging.Init(cfg.LogFile, cfg.Debug, console); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logging.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "Path to config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
}
