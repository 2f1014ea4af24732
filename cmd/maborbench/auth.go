package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/Nullvora/mabor-bench/internal/share"
)

func authCommand() cli.Command {
	return cli.Command{
		Name:  "auth",
		Usage: "manage credentials for the results service",
		Subcommands: []cli.Command{
			{
				Name:   "login",
				Usage:  "authenticate via the device-code flow",
				Action: authLoginAction,
			},
			{
				Name:   "status",
				Usage:  "show whether valid credentials are saved",
				Action: authStatusAction,
			},
			{
				Name:   "logout",
				Usage:  "remove saved credentials",
				Action: authLogoutAction,
			},
		},
	}
}

func authLoginAction(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	tokens := share.NewTokenStore(cfg.TokenPath())
	auth := share.NewAuthenticator(cfg.ServerURL, cfg.ClientID, tokens, os.Stdout)
	if _, err := auth.Login(context.Background()); err != nil {
		return err
	}
	fmt.Println("logged in")
	return nil
}

func authStatusAction(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	tok, err := share.NewTokenStore(cfg.TokenPath()).Load()
	switch {
	case errors.Is(err, share.ErrNoToken):
		fmt.Println("not logged in")
	case err != nil:
		return err
	case tok.Valid():
		fmt.Println("logged in")
	default:
		fmt.Println("token expired, run 'maborbench auth login'")
	}
	return nil
}

func authLogoutAction(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	if err := share.NewTokenStore(cfg.TokenPath()).Clear(); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}
