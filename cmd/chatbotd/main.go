package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/brizzai/chatbot/internal/app"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chatbotd",
	Short: "Chat assistant backend",
	Long: `chatbotd serves the chat assistant: a REST API with OTP and OAuth login,
per-user conversation history and an MCP tool surface over the same chat service.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, false, app.Serve)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the chat tools over MCP on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, true, app.ServeMCP)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		pterm.Info.Println(config.GetVersionInfo())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(serveCmd, mcpCmd, versionCmd)
}

type serveFunc func(ctx context.Context, cfg *config.Config, log *zap.Logger) error

func run(cmd *cobra.Command, stdio bool, serve serveFunc) error {
	defer func() {
		if r := recover(); r != nil {
			pterm.Error.Printf("\nCaught panic: %v\n", r)
			pterm.Error.Printf("%s\n", debug.Stack())
			os.Exit(2)
		}
	}()

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	// stdout carries the MCP protocol
	if stdio {
		cfg.Logging.DisableConsole = true
		pterm.SetDefaultOutput(os.Stderr)
	}

	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		return err
	}
	restore := logger.SetLogger(log)
	defer func() {
		_ = log.Sync()
		restore()
	}()

	for _, w := range cfg.Warnings() {
		pterm.Warning.Println(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, log)
}
