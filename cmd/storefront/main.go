package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

type CLI struct {
	config.Config `embed:""`

	Serve    serveCmd    `cmd:"" default:"1" help:"Run the local storefront UI server."`
	Cart     cartCmd     `cmd:"" help:"Show the cart and its pricing."`
	Add      addCmd      `cmd:"" help:"Add a product to the cart."`
	Qty      qtyCmd      `cmd:"" help:"Change the quantity of a cart line."`
	Remove   removeCmd   `cmd:"" help:"Remove a line from the cart."`
	Products productsCmd `cmd:"" help:"Browse the product listing."`
	Coupon   couponCmd   `cmd:"" help:"Apply a coupon code to the cart."`
	Checkout checkoutCmd `cmd:"" help:"Pay for the cart and place the order."`
	Review   reviewCmd   `cmd:"" help:"Review a product from a completed order."`
	Health   healthCmd   `cmd:"" help:"Check that the shop backend answers."`
}

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadDotenv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("storefront"),
		kong.Description("Storefront client for the shop backend."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(cli.Config.Validate())

	logger, err := logging.New(cli.LogLevel, cli.LogFormat)
	kctx.FatalIfErrorf(err)
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := session.Open(ctx, cli.Config, logger)
	kctx.FatalIfErrorf(err)
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("session close", zap.Error(err))
		}
	}()

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(cli.Config, logger, sess, &printer{w: os.Stdout})

	if err := kctx.Run(); err != nil {
		logger.Error("command failed", zap.String("command", kctx.Command()), zap.Error(err))
		fmt.Fprintln(os.Stderr, session.UserMessage(err))
		return 1
	}
	return 0
}
