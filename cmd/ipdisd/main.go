// Command ipdisd is the long-running IPDIS server process: it loads
// configuration, opens the storage engine, loads the server's signing
// key, starts the transport listener and the RPC dispatch loop, and
// serves the admin HTTP surface alongside it. Shaped after the teacher
// repo's cmd/xchainserver and cmd/dexserver mains.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ipdis-project/ipdis/internal/adminhttp"
	"github.com/ipdis-project/ipdis/internal/config"
	"github.com/ipdis-project/ipdis/internal/keystore"
	"github.com/ipdis-project/ipdis/internal/logging"
	"github.com/ipdis-project/ipdis/internal/server"
	"github.com/ipdis-project/ipdis/internal/store"
	"github.com/ipdis-project/ipdis/internal/transport"
)

func main() {
	log := logging.Logger()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("ipdisd: load config")
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		log.WithError(err).Warn("ipdisd: invalid log level, keeping default")
	}

	signer, err := keystore.LoadOrGenerate(cfg.KeystorePath, cfg.KeystorePassphrase)
	if err != nil {
		log.WithError(err).Fatal("ipdisd: load signing key")
	}
	log.WithField("account", signer.Account()).Info("ipdisd: signing identity ready")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("ipdisd: open storage engine")
	}
	defer st.Close()

	tp := transport.NewTCPTransport(signer.Account(), 10*time.Second, 30*time.Second)
	ln, err := tp.Listen(ctx, cfg.ListenAddr)
	if err != nil {
		log.WithError(err).Fatal("ipdisd: listen")
	}
	defer ln.Close()
	log.WithField("addr", ln.Addr()).Info("ipdisd: rpc listener ready")

	srv := server.New(ln, st, signer)
	go func() {
		if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("ipdisd: rpc server stopped")
		}
	}()

	adminSrv := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminhttp.New(st, "ipdisd"),
	}
	go func() {
		log.WithField("addr", cfg.AdminAddr).Info("ipdisd: admin http ready")
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("ipdisd: admin http stopped")
		}
	}()

	<-ctx.Done()
	log.Info("ipdisd: shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = adminSrv.Shutdown(shutdownCtx)
}
