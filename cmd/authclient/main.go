package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-client/accounts"
	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = "usage: authclient [login|token|refresh|revoke]"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	command := "login"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if err := run(command); err != nil {
		log.Fatal().Err(err).Msg("authclient failed")
	}
}

func run(command string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	if level, err := zerolog.ParseLevel(c.GetLogLevel()); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closer, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer closer.Close()

	cfg, adapter, err := providerConfig(ctx, c)
	if err != nil {
		return err
	}
	redirectURL, err := url.Parse(cfg.RedirectURL)
	if err != nil {
		return fmt.Errorf("redirect url: %w", err)
	}

	reg := prometheus.NewRegistry()
	registry, err := accounts.New(store, auth.PresenterFunc(present),
		accounts.WithFlowOptions(auth.WithRecorder(metrics.New(metrics.WithRegisterer(reg)))))
	if err != nil {
		return err
	}
	flow, err := registry.Add(ctx, cfg, adapter, flowOptions(c, cfg)...)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              c.GetListenAddr(),
		Handler:           newRouter(redirectURL, registry, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", server.Addr, err)
	}
	go serve(server, listener)
	defer shutdown(server)

	return execute(ctx, command, flow)
}

func execute(ctx context.Context, command string, flow *auth.Flow) error {
	switch command {
	case "login":
		token, claims, err := flow.Login(ctx)
		if err != nil {
			return err
		}
		log.Info().Str("subject", claims.Subject).Str("email", claims.Email).Str("name", claims.Name).Msg("logged in")
		fmt.Println(token)
	case "token":
		token, err := flow.RequestAccess(ctx)
		if err != nil {
			return err
		}
		fmt.Println(token)
	case "refresh":
		token, err := flow.RefreshAccessToken(ctx)
		if err != nil {
			return err
		}
		fmt.Println(token)
	case "revoke":
		revoked, err := flow.RevokeAccess(ctx)
		if err != nil {
			return err
		}
		log.Info().Bool("revoked", revoked).Msg("revocation finished")
	default:
		return errors.New(usage)
	}
	return nil
}

// present asks the user to open the authorization page.
func present(_ context.Context, p auth.Presentation) error {
	fmt.Fprintf(os.Stderr, "\nOpen this URL in a browser to sign in:\n\n  %s\n\n", p.URL)
	return nil
}

func serve(server *http.Server, listener net.Listener) {
	log.Debug().Str("addr", server.Addr).Msg("redirect listener started")
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("redirect listener stopped")
	}
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("server.Shutdown")
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
