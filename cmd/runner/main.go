// Command runner drives a complete paid generation run from the terminal:
// approve, pay, generate all four variants against a running API, and save
// the results to disk. It uses the same code paths the hosted flow does.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AzrielTheHellrazor/Flicks/internal/app"
	"github.com/AzrielTheHellrazor/Flicks/internal/chain"
	"github.com/AzrielTheHellrazor/Flicks/internal/infra"
	"github.com/AzrielTheHellrazor/Flicks/internal/ledger"
	"github.com/AzrielTheHellrazor/Flicks/internal/payment"
	"github.com/AzrielTheHellrazor/Flicks/internal/pipeline"
	"github.com/AzrielTheHellrazor/Flicks/internal/storage"
)

func main() {
	var (
		prompt  = flag.String("prompt", "", "image prompt, at most 300 characters")
		apiURL  = flag.String("api", "http://localhost:8080", "base URL of the running API")
		account = flag.String("account", "", "payer account managed by the RPC node")
		outDir  = flag.String("out", "./assets", "directory to save the generated images into")
		skipPay = flag.Bool("skip-payment", false, "skip the on-chain payment flow (ungated servers only)")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if *prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: runner -prompt \"...\" [-api URL] [-account 0x...]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewFileStore(*outDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("runner: failed to configure output directory")
	}

	rpc, err := chain.NewRPCClient(chain.RPCOptions{URL: cfg.ChainRPCURL})
	if err != nil {
		logger.Fatal().Err(err).Msg("runner: invalid chain rpc url")
	}
	wallet := chain.NewRPCWallet(rpc, *account)
	receipts := chain.NewRPCReceiptWaiter(rpc)

	var led ledger.Ledger
	if !*skipPay {
		led = ledger.NewHTTPClient(*apiURL, nil)
	}

	ctrl := app.NewController(app.Options{
		NewCoordinator: func(onSuccess func(chain.TxHash)) *payment.Coordinator {
			return payment.NewCoordinator(payment.Options{
				Wallet:          wallet,
				Receipts:        receipts,
				Allowances:      rpc,
				TokenContract:   cfg.USDCContract,
				PaymentContract: cfg.PaymentContract,
				AmountBaseUnits: infra.PaymentAmountBaseUnits,
				OnSuccess:       onSuccess,
				Logger:          logger,
			})
		},
		Ledger: led,
		Logger: logger,
	})

	req, err := ctrl.Submit(*prompt)
	if err != nil {
		logger.Fatal().Err(err).Msg("runner: prompt rejected")
	}

	runner := pipeline.NewRunner(pipeline.Options{
		Client: pipeline.NewHTTPImageClient(*apiURL, nil),
		OnProgress: func(p pipeline.Progress) {
			ctrl.ReportProgress(p)
			fmt.Printf("[%d/%d] %s\n", p.Current, p.Total, p.Status)
		},
		Logger: logger,
	})
	ctrl.AttachRunner(runner)

	if *skipPay {
		logger.Warn().Msg("runner: skipping on-chain payment")
		if err := ctrl.RunUnpaid(ctx); err != nil {
			logger.Fatal().Err(err).Msg("runner: generation failed")
		}
	} else if err := ctrl.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("runner: run failed")
	}

	session := ctrl.Session()
	images := session.ImageList()
	keys, err := store.SaveRun(ctx, req.ID, images)
	if err != nil {
		logger.Fatal().Err(err).Msg("runner: failed to save images")
	}
	for _, key := range keys {
		fmt.Println("saved", key)
	}
	if session.PaymentTx != "" {
		fmt.Println("payment tx", session.PaymentTx)
	}
}
