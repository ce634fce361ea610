package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brizzai/chatbot/internal/client"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/tui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func main() {
	Execute()
}

var (
	serverURL string
	userID    string
	token     string
	timeout   time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chatbot-cli",
	Short: "Terminal chat client",
	Long: `chatbot-cli talks to a running chatbotd from the terminal.
Type a message and press enter; /clear clears the conversation,
/file <path> <message> sends a file along with a message and ctrl+c quits.`,
	SilenceUsage: true,
	RunE:         runChat,
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
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3001", "Base URL of the chatbot server")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "Conversation user id (defaults to the token's user)")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("CHATBOT_TOKEN"), "Session token from /auth/verify-otp or an OAuth login")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 90*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(serverURL, client.AuthFor(token))
	c.SetTimeout(timeout)

	health, err := c.Health(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach %s: %w", serverURL, err)
	}

	if userID == "" {
		if token == "" {
			pterm.Error.Println("A user id is required, you must supply it with --user or --token")
			os.Exit(1)
		}
		me, err := c.Me(ctx)
		if err != nil {
			return err
		}
		userID = me.UserID
	}

	if err := tui.Run(ctx, c, userID, health.Bot); err != nil {
		return err
	}

	pterm.Info.Printfln("Bye %s", pterm.LightGreen(userID))
	return nil
}
