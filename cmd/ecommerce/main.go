package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"ecommerce/pkg/infrastructure/inventory"
	"ecommerce/pkg/infrastructure/mysql"
	"ecommerce/pkg/infrastructure/transport"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cliApp := &cli.App{
		Name:  appID,
		Usage: "e-commerce backend: REST API, inventory RPC and admin tooling",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP and gRPC servers",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations",
				Action: migrateDatabase,
			},
			{
				Name:   "init-roles",
				Usage:  "create the built-in Admin and Moderator roles",
				Action: initRoles,
			},
			{
				Name:  "create-admin",
				Usage: "create a super-admin account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Value: "Administrator"},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ECOMMERCE_ADMIN_PASSWORD"}},
				},
				Action: createAdmin,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.WithError(err).Fatal("command failed")
	}
}

func setup(ctx context.Context) (*config, *sqlx.DB, error) {
	conf, err := parseEnv()
	if err != nil {
		return nil, nil, err
	}
	level, _ := log.ParseLevel(conf.LogLevel)
	log.SetLevel(level)

	db, err := mysql.Open(ctx, conf.mysqlConfig())
	if err != nil {
		return nil, nil, err
	}
	return conf, db, nil
}

func serve(c *cli.Context) error {
	conf, db, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := mysql.Migrate(db); err != nil {
		return err
	}

	a, err := newApp(conf, db)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.services.Permissions.EnsureSystemRoles(c.Context); err != nil {
		return errors.Wrap(err, "ensure system roles")
	}

	decimal.MarshalJSONWithoutQuotes = true

	killSignalChan := getKillSignalChan()

	httpServer := &http.Server{
		Addr:              conf.HTTPAddress,
		Handler:           transport.Router(a.services, a.files.Dir()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer, healthServer := inventory.NewGRPCServer(inventory.NewServer(a.services.Products, a.ledger))
	listener, err := net.Listen("tcp", conf.GRPCAddress)
	if err != nil {
		return errors.Wrap(err, "listen grpc")
	}

	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() error {
		log.WithField("address", conf.HTTPAddress).Info("starting http server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		log.WithField("address", conf.GRPCAddress).Info("starting grpc server")
		return errors.Wrap(grpcServer.Serve(listener), "grpc server")
	})
	g.Go(func() error {
		waitForKillSignal(ctx, killSignalChan)

		healthServer.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}

func migrateDatabase(c *cli.Context) error {
	_, db, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer db.Close()
	return mysql.Migrate(db)
}

func initRoles(c *cli.Context) error {
	conf, db, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := newApp(conf, db)
	if err != nil {
		return err
	}
	defer a.Close()

	roles, err := a.services.Permissions.EnsureSystemRoles(c.Context)
	if err != nil {
		return err
	}
	for _, role := range roles {
		log.WithFields(log.Fields{"roleID": role.ID, "name": role.Name}).Info("system role ready")
	}
	return nil
}

func createAdmin(c *cli.Context) error {
	conf, db, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := newApp(conf, db)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.services.Users.CreateAdmin(c.Context, c.String("name"), c.String("email"), c.String("password"))
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"userID": user.ID, "email": user.Email}).Info("admin created")
	return nil
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}

// waitForKillSignal also returns when ctx ends, which happens as soon as one
// of the servers fails.
func waitForKillSignal(ctx context.Context, killSignalChan <-chan os.Signal) {
	select {
	case killSignal := <-killSignalChan:
		switch killSignal {
		case os.Interrupt:
			log.Info("Got SIGINT...")
		case syscall.SIGTERM:
			log.Info("Got SIGTERM...")
		}
	case <-ctx.Done():
	}
}
