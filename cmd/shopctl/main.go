package main

import (
	"fmt"
	"os"

	"sweetshop-api/internal/config"
	"sweetshop-api/internal/repository"
	"sweetshop-api/internal/seed"
	"sweetshop-api/internal/service"
	"sweetshop-api/pkg/database"
	"sweetshop-api/pkg/jwt"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {
	app := &cli.App{
		Name:  "shopctl",
		Usage: "maintenance tasks for the sweet shop database",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "create or update the database schema",
				Action: func(c *cli.Context) error {
					db, _, err := open()
					if err != nil {
						return err
					}
					if err := database.Migrate(db); err != nil {
						return err
					}
					log.Info("migration completed")
					return nil
				},
			},
			{
				Name:  "seed",
				Usage: "load demo users and sweets",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "reset", Usage: "delete the existing catalogue first"},
				},
				Action: func(c *cli.Context) error {
					db, _, err := open()
					if err != nil {
						return err
					}
					if err := database.Migrate(db); err != nil {
						return err
					}
					res, err := seed.Run(c.Context, db, c.Bool("reset"))
					if err != nil {
						return err
					}
					fmt.Printf("created %d users and %d sweets (demo password: %s)\n", res.Users, res.Sweets, seed.DemoPassword)
					return nil
				},
			},
			{
				Name:      "reset-password",
				Usage:     "set a new password for an account",
				ArgsUsage: "<email>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, Usage: "new password"},
				},
				Action: func(c *cli.Context) error {
					email := c.Args().First()
					if email == "" {
						return cli.Exit("email is required", 1)
					}
					db, cfg, err := open()
					if err != nil {
						return err
					}
					auth := service.NewAuthService(repository.NewUserRepo(db), jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL))
					if err := auth.ResetPassword(c.Context, email, c.String("password")); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					log.WithField("email", email).Info("password updated")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("shopctl failed")
	}
}

func open() (*gorm.DB, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	cfg.ConfigureLogging()

	db, err := database.ConnectDB(cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}
