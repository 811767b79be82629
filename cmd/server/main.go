package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/tokenprog/internal/auth"
	"github.com/example/tokenprog/internal/cache"
	"github.com/example/tokenprog/internal/client"
	"github.com/example/tokenprog/internal/config"
	apihttp "github.com/example/tokenprog/internal/http"
	"github.com/example/tokenprog/internal/handlers"
	"github.com/example/tokenprog/internal/ledger"
	"github.com/example/tokenprog/internal/program"
	"github.com/example/tokenprog/internal/rate"
	"github.com/example/tokenprog/internal/solana"
	sol "github.com/gagliardetto/solana-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type keyStore interface {
	auth.APIKeyStore
	auth.APIKeyIssuer
}

type cluster interface {
	client.Cluster
	apihttp.Pinger
}

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var mongoClient *mongo.Client
	if cfg.Store == "mongo" {
		var err error
		mongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("mongo connect error: %v", err)
		}
		defer func() {
			_ = mongoClient.Disconnect(context.Background())
		}()
	}

	keys, err := newKeyStore(ctx, cfg, mongoClient)
	if err != nil {
		log.Fatalf("api key store init error: %v", err)
	}
	if cfg.APIKey != "" {
		if err := keys.Issue(ctx, cfg.APIKey, true, "bootstrap"); err != nil {
			log.Fatalf("api key bootstrap error: %v", err)
		}
		log.Printf("event=key_issued api=%s owner=bootstrap", auth.HashPrefix(cfg.APIKey))
	}

	programID, err := programIDFrom(cfg.ProgramID)
	if err != nil {
		log.Fatalf("program id: %v", err)
	}
	authority, err := loadAuthority(cfg.AuthorityKey)
	if err != nil {
		log.Fatalf("authority key: %v", err)
	}

	cl, bank, err := newCluster(ctx, cfg, mongoClient, programID, authority.PublicKey())
	if err != nil {
		log.Fatalf("cluster init error: %v", err)
	}
	invoker, err := client.New(client.Config{ProgramID: programID, Payer: authority}, cl)
	if err != nil {
		log.Fatalf("client init error: %v", err)
	}
	log.Printf("event=startup cluster=%s store=%s program=%s authority=%s", cfg.Cluster, cfg.Store, programID, authority.PublicKey())

	accounts := cache.New[ledger.Account](cfg.CacheTTL)
	rt := apihttp.Routes{
		Program: handlers.NewProgramHandler(handlers.ProgramDeps{
			Invoker:  invoker,
			Configs:  cache.New[program.TokenConfig](cfg.CacheTTL),
			Accounts: accounts,
			Timeout:  cfg.RequestTimeout,
		}),
		Accounts: handlers.NewAccountsHandler(handlers.AccountsDeps{
			Cache:          accounts,
			Reader:         cl,
			ProgramID:      programID,
			Timeout:        cfg.RequestTimeout,
			MaxConcurrency: cfg.MaxConcurrency,
		}),
	}
	if bank != nil {
		rt.Tx = handlers.NewTxHandler(bank)
	}
	if cfg.AdminToken != "" {
		rt.Admin = handlers.NewAdminHandler(keys, cfg.AdminToken)
	}

	lm := rate.NewLimiterMap(cfg.RateLimitRPM, cfg.RateLimitRPM, 5*time.Minute)
	defer lm.Stop()

	srv := &http.Server{
		Addr:         ":" + sanitizePort(cfg.Port),
		Handler:      apihttp.NewRouter(rt, lm, keys, cl),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("shutting down...")
	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}

func newKeyStore(ctx context.Context, cfg config.Config, mc *mongo.Client) (keyStore, error) {
	if mc == nil {
		return auth.NewMemoryKeyStore(), nil
	}
	return auth.NewMongoKeyStore(ctx, mc, cfg.MongoDB, cfg.KeyCacheTTL)
}

// newCluster returns the cluster transactions go to. The bank is non-nil
// only for the in-process cluster.
func newCluster(ctx context.Context, cfg config.Config, mc *mongo.Client, programID, authority sol.PublicKey) (cluster, *ledger.Bank, error) {
	switch cfg.Cluster {
	case "rpc":
		return solana.NewClient(cfg.RPCURL, chooseCommitment(cfg.SolCommitment)), nil, nil
	case "local", "":
	default:
		return nil, nil, errors.New("unknown cluster " + cfg.Cluster)
	}

	var store ledger.Store = ledger.NewMemoryStore()
	if mc != nil {
		ms, err := ledger.NewMongoStore(ctx, mc, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		store = ms
	}
	bank := ledger.NewBank(ledger.BankConfig{Store: store})
	bank.Register(program.NewProcessor(programID))

	acct, err := bank.GetAccount(ctx, authority)
	if err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, nil, err
	}
	if acct.Lamports < cfg.AirdropLamports {
		if _, err := bank.Airdrop(ctx, authority, cfg.AirdropLamports-acct.Lamports); err != nil {
			return nil, nil, err
		}
	}
	return bank, bank, nil
}
