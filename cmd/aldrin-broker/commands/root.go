package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"log/syslog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logrus_syslog "github.com/sirupsen/logrus/hooks/syslog"
	"github.com/spf13/cobra"

	"github.com/aldrin-bus/aldrin/internal/httputil"
	"github.com/aldrin-bus/aldrin/internal/logging"
	"github.com/aldrin-bus/aldrin/pkg/broker"
	"github.com/aldrin-bus/aldrin/pkg/metrics"
	"github.com/aldrin-bus/aldrin/pkg/transport"
)

const statsInterval = 10 * time.Second

var (
	metricsAddr  string
	syslogAddr   string
	tag          string
	cfgFromStdin bool
)

// Config is an aldrin-broker config.
type Config struct {
	ListenAddress string `json:"listen_address"`
	AdminAddress  string `json:"admin_address"`
	LogLevel      string `json:"log_level"`
	QueueSize     int    `json:"queue_size"`
}

var rootCmd = &cobra.Command{
	Use:   "aldrin-broker [config.json]",
	Short: "Message broker for the Aldrin bus",
	Run: func(_ *cobra.Command, args []string) {
		configFile := defaultConfigPath()
		if len(args) > 0 {
			configFile = args[0]
		}
		conf := parseConfig(configFile)

		logger := logging.MustGetLogger(tag)
		if conf.LogLevel != "" {
			logLevel, err := logging.LevelFromString(conf.LogLevel)
			if err != nil {
				log.Fatal("Failed to parse LogLevel: ", err)
			}
			logging.SetLevel(logLevel)
		}

		if syslogAddr != "" {
			hook, err := logrus_syslog.NewSyslogHook("udp", syslogAddr, syslog.LOG_INFO, tag)
			if err != nil {
				logger.Fatalf("Unable to connect to syslog daemon on %v", syslogAddr)
			}
			logging.AddHook(hook)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		b := broker.New()
		b.SetLogger(logger)
		if conf.QueueSize > 0 {
			b.SetQueueSize(conf.QueueSize)
		}
		handle := b.Handle()

		brokerDone := make(chan struct{})
		go func() {
			b.Run(ctx)
			close(brokerDone)
		}()

		m := metrics.NewBrokerMetrics("broker")
		go reportStatistics(ctx, handle, m)
		go serveAdmin(conf.AdminAddress, handle, logger)

		lis, err := net.Listen("tcp", conf.ListenAddress)
		if err != nil {
			logger.Fatalf("Failed to listen on %v: %v", conf.ListenAddress, err)
		}
		go func() {
			<-ctx.Done()
			lis.Close() //nolint:errcheck
		}()

		logger.Infof("serving: addr(%v)", conf.ListenAddress)

		for {
			rawConn, err := lis.Accept()
			if err != nil {
				break
			}

			go func() {
				conn, err := handle.Connect(ctx, transport.NewBuffered(transport.NewFramed(rawConn)))
				if err != nil {
					logger.WithError(err).Warnf("handshake with %v failed", rawConn.RemoteAddr())
					return
				}
				err = conn.Run(ctx)
				logger.Infof("connection with %v closed: error(%v)", rawConn.RemoteAddr(), err)
			}()
		}

		handle.Shutdown(context.Background()) //nolint:errcheck
		<-brokerDone
	},
}

func init() {
	rootCmd.Flags().StringVarP(&metricsAddr, "metrics", "m", ":2121", "address to bind metrics API to")
	rootCmd.Flags().StringVar(&syslogAddr, "syslog", "", "syslog server address. E.g. localhost:514")
	rootCmd.Flags().StringVar(&tag, "tag", "aldrin-broker", "logging tag")
	rootCmd.Flags().BoolVarP(&cfgFromStdin, "stdin", "i", false, "read configuration from STDIN")
}

func defaultConfigPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".aldrin", "broker.json")
}

func parseConfig(configFile string) *Config {
	conf := &Config{
		ListenAddress: ":24940",
		AdminAddress:  ":8082",
		QueueSize:     broker.DefaultQueueSize,
	}

	var rdr io.Reader
	if !cfgFromStdin {
		f, err := os.Open(configFile) //nolint:gosec
		if err != nil {
			if os.IsNotExist(err) {
				return conf
			}
			log.Fatalf("Failed to open config: %s", err)
		}
		defer f.Close() //nolint:errcheck
		rdr = f
	} else {
		rdr = bufio.NewReader(os.Stdin)
	}

	if err := json.NewDecoder(rdr).Decode(conf); err != nil {
		log.Fatalf("Failed to decode config: %s", err)
	}

	return conf
}

// reportStatistics periodically samples broker statistics into Prometheus
// collectors and serves them.
func reportStatistics(ctx context.Context, handle *broker.Handle, m *metrics.BrokerMetrics) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(metricsAddr, nil); err != nil { //nolint:gosec
			log.Println("Failed to start metrics API:", err)
		}
	}()

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats, err := handle.TakeStatistics(ctx)
			if err != nil {
				return
			}
			m.Report(stats)
		case <-ctx.Done():
			return
		}
	}
}

// serveAdmin exposes the broker's health and statistics over HTTP.
func serveAdmin(addr string, handle *broker.Handle, logger *logging.Logger) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		stats, err := handle.TakeStatistics(r.Context())
		if err != nil {
			httputil.WriteJSON(w, r, http.StatusServiceUnavailable, err)
			return
		}
		httputil.WriteJSON(w, r, http.StatusOK, stats)
	})

	if err := http.ListenAndServe(addr, r); err != nil { //nolint:gosec
		logger.WithError(err).Error("admin API stopped")
	}
}

// Execute executes root CLI command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
