// Hostsfile-webhook is an external-dns webhook provider that keeps DNS
// records in a hosts file, on disk or in a Kubernetes ConfigMap. Records are
// added and removed as edits of the existing file, so comments and entries
// it does not manage are left as they were.
//
// Usage:
//
//	hostsfile-webhook serve --hosts-file /etc/hosts
//	hostsfile-webhook hosts list --file /etc/hosts
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"sigs.k8s.io/external-dns/provider/webhook/api"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hostsfile-webhook",
	Short: "external-dns webhook provider backed by a hosts file",
	Long: `An external-dns webhook provider that stores records in a hosts file.

Entries are appended and removed in place; everything else in the file,
comments and blank lines included, is preserved byte for byte.

If no command is specified, serve runs.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

var (
	serveFlags Config
	configPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook provider",
	Long: `Run the external-dns webhook provider.

Only the first name after an address is read as a record. Alias lists such
as "::1 localhost ip6-localhost ip6-loopback" are left in the file as they
are, but the aliases are not reported as records, so point the provider at
a file it manages (one name per line) rather than a system hosts file full
of aliases.`,
	RunE: runServe,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// serve's flags live on root too so the bare command accepts them.
	rootCmd.Flags().StringVar(&configPath, "config", "", "Optional YAML config file (env "+envName("config")+")")
	bindConfigFlags(rootCmd.Flags(), &serveFlags)
	serveCmd.Flags().AddFlagSet(rootCmd.Flags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(hostsCmd)
}

func newPersister(cfg Config) (HostsfilePersister, error) {
	switch cfg.Backend {
	case "configmap":
		return NewConfigMapHostsfilePersister(cfg.ConfigMapNamespace, cfg.ConfigMapName)
	default:
		return &OnDiskHostsfilePersister{path: cfg.HostsFile}, nil
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = os.Getenv(envName("config"))
	}
	cfg, err := resolveConfig(cmd.Flags(), &serveFlags, path)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	persister, err := newPersister(cfg)
	if err != nil {
		return fmt.Errorf("error creating %s persister: %w", cfg.Backend, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	provider := NewHostsfileProvider(persister, ProviderOptions{
		Comment:       cfg.EntryComment,
		DomainFilters: cfg.DomainFilters,
		Metrics:       newProviderMetrics(reg),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := provider.Records(ctx); err != nil {
		log.WithError(err).Warn("Initial read of hosts file failed")
	}

	p := api.WebhookServer{
		Provider: provider,
	}
	m := http.NewServeMux()
	m.HandleFunc("/", p.NegotiateHandler)
	m.HandleFunc("/records", p.RecordsHandler)
	m.HandleFunc("/adjustendpoints", p.AdjustEndpointsHandler)

	metrics := http.NewServeMux()
	metrics.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	metrics.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	servers := []*http.Server{
		{Addr: cfg.ListenAddress, Handler: m, ReadHeaderTimeout: 5 * time.Second},
		{Addr: cfg.MetricsAddress, Handler: metrics, ReadHeaderTimeout: 5 * time.Second},
	}

	errs := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			log.Infof("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("server on %s failed: %w", srv.Addr, err)
			}
		}(srv)
	}

	select {
	case err = <-errs:
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			log.WithError(serr).Warnf("Shutdown of %s failed", srv.Addr)
		}
	}
	return err
}
