package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dsimona/estimo/internal/config"
	"github.com/dsimona/estimo/internal/logger"
	"github.com/dsimona/estimo/sdk"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := flag.NewFlagSet("estimo", flag.ContinueOnError)
	server := flags.String("server", cfg.ServerURL, "server base URL")
	debug := flags.Bool("debug", cfg.Debug, "verbose transport logging")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}
	cfg.ServerURL = strings.TrimRight(*server, "/")
	cfg.Debug = *debug

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if cfg.Debug && level < logger.LevelDebug {
		level = logger.LevelDebug
	}
	logger.SetLevel(level)

	args := flags.Args()
	if len(args) == 0 {
		printUsage()
		return nil
	}

	client, err := sdk.NewClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	switch args[0] {
	case "version":
		return versionCommand(client)
	case "login":
		if len(args) < 2 {
			return fmt.Errorf("usage: estimo login <user>")
		}
		return loginCommand(client, args[1])
	case "logout":
		return logoutCommand(client)
	case "whoami":
		return whoamiCommand(client)
	case "watch":
		return watchCommand(client)
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func versionCommand(client *sdk.Client) error {
	info, err := client.GetVersion()
	if err != nil {
		return err
	}
	fmt.Println(info.Message)
	if info.Version != "" {
		fmt.Printf("backend version: %s (modified %s)\n", info.Version, info.Modified)
	}
	return nil
}

func loginCommand(client *sdk.Client, user string) error {
	fmt.Printf("Password for %s: ", user)
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	password = strings.TrimRight(password, "\r\n")

	rep, err := client.LogIn(user, password)
	if err != nil {
		return err
	}
	if !rep.OK() {
		return fmt.Errorf("login failed: %s", rep.Message)
	}

	info, err := client.SyncUserInfo()
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s %s (id %d)\n", info.FirstName, info.LastName, info.ID)
	return nil
}

func logoutCommand(client *sdk.Client) error {
	resp := client.LogOut()
	if !resp.OK() {
		return fmt.Errorf("logout failed: %s", resp.ErrorMessage())
	}
	fmt.Println("Logged out")
	return nil
}

func whoamiCommand(client *sdk.Client) error {
	info, err := client.SyncUserInfo()
	if err != nil {
		return err
	}
	if info.IsAnonymous() {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("%s %s (id %d)\n", info.FirstName, info.LastName, info.ID)
	if info.Email != "" {
		fmt.Printf("email: %s\n", info.Email)
	}
	for _, role := range info.Roles {
		fmt.Printf("role: %s\n", role.Name)
	}
	return nil
}

// watchCommand tails state changes until interrupted.
func watchCommand(client *sdk.Client) error {
	cancel := client.Store().Subscribe(func(state sdk.AppState) {
		connected := "disconnected"
		if state.Connected {
			connected = "connected"
		}
		who := "anonymous"
		if !state.UserInfo.IsAnonymous() {
			who = fmt.Sprintf("%s %s", state.UserInfo.FirstName, state.UserInfo.LastName)
		}
		line := fmt.Sprintf("[%s] user=%s", connected, who)
		if state.Alert != nil {
			line += fmt.Sprintf(" alert(%s)=%s", state.Alert.Type, state.Alert.Text)
		}
		fmt.Println(line)
	})
	defer cancel()

	// Touch the channel so connectivity events start flowing.
	if _, err := client.SyncUserInfo(); err != nil {
		logger.Warnf("initial userinfo: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

func printUsage() {
	fmt.Println(`estimo - Estimo service client

Usage:
  estimo [flags] <command>

Commands:
  version          show server version info
  login <user>     log in (prompts for password)
  logout           log out
  whoami           show the current identity
  watch            tail connectivity/identity/alert changes

Flags:
  -server URL      server base URL (default from ESTIMO_SERVER_URL)
  -debug           verbose transport logging`)
}
