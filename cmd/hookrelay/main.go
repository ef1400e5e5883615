// Command hookrelay runs the webhook registration and dispatch service.
//
// Usage:
//
//	hookrelay [-config path] [-version]
//	hookrelay token -subject name -role admin|publisher [-ttl 24h] [-config path]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bissquit/hookrelay/internal/app"
	"github.com/bissquit/hookrelay/internal/auth"
	"github.com/bissquit/hookrelay/internal/config"
	"github.com/bissquit/hookrelay/internal/domain"
	"github.com/bissquit/hookrelay/internal/version"
)

func main() {
	var err error
	if len(os.Args) > 1 && os.Args[1] == "token" {
		err = runToken(os.Args[2:])
	} else {
		err = runServer(os.Args[1:])
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func runServer(args []string) error {
	fs := flag.NewFlagSet("hookrelay", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to YAML config file")
	showVersion := fs.Bool("version", false, "print version and exit")
	_ = fs.Parse(args)

	if *showVersion {
		fmt.Println(version.Get())
		return nil
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}

// runToken prints a signed API token. It needs only the JWT settings.
func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to YAML config file")
	subject := fs.String("subject", "", "token subject")
	role := fs.String("role", string(domain.RolePublisher), "token role: admin or publisher")
	ttl := fs.Duration("ttl", 0, "token lifetime, defaults to jwt.token_duration")
	_ = fs.Parse(args)

	if *subject == "" {
		return errors.New("subject is required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	authenticator := auth.NewAuthenticator(auth.Config{
		SecretKey:     cfg.JWT.SecretKey,
		TokenDuration: cfg.JWT.TokenDuration,
	})
	token, err := authenticator.IssueToken(*subject, domain.Role(*role), *ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Println(token)
	return nil
}
