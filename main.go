package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/sadopc/worklog/internal/config"
	"github.com/sadopc/worklog/internal/httpapi"
	"github.com/sadopc/worklog/internal/logger"
	"github.com/sadopc/worklog/internal/store"
	"github.com/sadopc/worklog/internal/tui"
	"go.uber.org/zap"
)

const usage = `usage: worklog <command> [flags]

commands:
  serve   run the HTTP API
  user    create a user with a global role
  token   print a bearer token for a user
  tui     open the terminal report viewer
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(args)
	case "user":
		err = runUser(args)
	case "token":
		err = runToken(args)
	case "tui":
		err = runTUI(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file named by -config, falling back to the
// default database location in the user's config dir.
func loadConfig(path string) (*config.Config, error) {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path, dbPath)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config.yaml")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if cfg.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key is required to serve (set WORKLOG_JWT_SECRET_KEY)")
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	if cfg.HTTP.Mode != "" {
		gin.SetMode(cfg.HTTP.Mode)
	}
	api := httpapi.New(s, httpapi.Options{
		Secret:      cfg.JWT.SecretKey,
		TokenTTL:    cfg.TokenTTL(),
		MaxInterval: cfg.MaxInterval(),
		Location:    cfg.Location(),
		PerPage:     cfg.Query.PerPage,
	}, logger.Get())

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("database", cfg.Database.Path),
			zap.String("timezone", cfg.Query.Timezone))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

var roles = map[string]int64{
	"admin":    store.RoleAdmin,
	"user":     store.RoleUser,
	"observer": store.RoleObserver,
	"manager":  store.RoleManager,
}

func runUser(args []string) error {
	fs := flag.NewFlagSet("user", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config.yaml")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	role := fs.String("role", "user", "global role: admin, user, observer or manager")
	manual := fs.Bool("manual-time", false, "allow manual time entry")
	fs.Parse(args)

	if *name == "" || *email == "" {
		return errors.New("-name and -email are required")
	}
	roleID, ok := roles[*role]
	if !ok {
		return fmt.Errorf("unknown role %q", *role)
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	ctx := context.Background()
	var u *store.User
	err = s.WithinTx(ctx, func(ctx context.Context) error {
		created, err := s.CreateUser(ctx, *name, *email, *manual)
		if err != nil {
			return err
		}
		u = created
		return s.AssignRole(ctx, u.ID, roleID)
	})
	if err != nil {
		return err
	}
	fmt.Printf("created user %d (%s, %s)\n", u.ID, u.Email, *role)
	return nil
}

func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config.yaml")
	userID := fs.Int64("user", 0, "user id the token authenticates")
	ttl := fs.Duration("ttl", 0, "token lifetime (default jwt.expire_hours)")
	fs.Parse(args)

	if *userID <= 0 {
		return errors.New("-user is required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()
	if _, err := s.LoadActor(context.Background(), *userID); err != nil {
		return fmt.Errorf("user %d: %w", *userID, err)
	}

	d := cfg.TokenTTL()
	if *ttl > 0 {
		d = *ttl
	}
	tok, err := httpapi.IssueToken(cfg.JWT.SecretKey, *userID, d)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func runTUI(args []string) error {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config.yaml")
	userID := fs.Int64("user", 1, "user id to view reports as")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	actor, err := s.LoadActor(context.Background(), *userID)
	if err != nil {
		return fmt.Errorf("user %d: %w", *userID, err)
	}

	p := tea.NewProgram(tui.NewApp(s, actor), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
