package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rcarmo/go-utf16/internal/codec/utf16"
	"github.com/rcarmo/go-utf16/internal/config"
	"github.com/rcarmo/go-utf16/internal/handler"
	"github.com/rcarmo/go-utf16/internal/logging"
	"github.com/rcarmo/go-utf16/web"
)

const (
	appName    = "UTF-16 Encoder Service"
	appVersion = "v1.0.0"
)

const (
	actionHelp    = "help"
	actionVersion = "version"
)

type parsedArgs struct {
	host       string
	port       string
	logLevel   string
	configFile string
	byteOrder  string
	fatal      *bool
	prependBOM *bool
}

func main() {
	args, action := parseFlags()

	switch action {
	case actionHelp:
		showHelp()
		return
	case actionVersion:
		showVersion()
		return
	}

	if err := run(args); err != nil {
		log.Fatalln(err)
	}
}

func parseFlags() (parsedArgs, string) {
	return parseFlagsWithArgs(os.Args[1:])
}

func parseFlagsWithArgs(arguments []string) (parsedArgs, string) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	hostFlag := fs.String("host", "", "server listen host")
	portFlag := fs.String("port", "", "server listen port")
	logLevelFlag := fs.String("log-level", "", "log level (debug, info, warn, error)")
	configFlag := fs.String("config", "", "path to a TOML configuration file")
	orderFlag := fs.String("order", "", "default byte order (be, le)")
	fatalFlag := fs.Bool("fatal", false, "reject lone surrogates instead of replacing them")
	bomFlag := fs.Bool("bom", false, "prepend a byte order mark by default")
	helpFlag := fs.Bool("help", false, "show help")
	versionFlag := fs.Bool("version", false, "show version")

	if err := fs.Parse(arguments); err != nil {
		return parsedArgs{}, actionHelp
	}

	if *helpFlag {
		return parsedArgs{}, actionHelp
	}

	if *versionFlag {
		return parsedArgs{}, actionVersion
	}

	// Only flags given on the command line override file and environment
	var fatal, prependBOM *bool
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "fatal":
			fatal = fatalFlag
		case "bom":
			prependBOM = bomFlag
		}
	})

	return parsedArgs{
		host:       strings.TrimSpace(*hostFlag),
		port:       strings.TrimSpace(*portFlag),
		logLevel:   strings.TrimSpace(*logLevelFlag),
		configFile: strings.TrimSpace(*configFlag),
		byteOrder:  strings.TrimSpace(*orderFlag),
		fatal:      fatal,
		prependBOM: prependBOM,
	}, ""
}

func run(args parsedArgs) error {
	opts := config.LoadOptions{
		Host:       args.host,
		Port:       args.port,
		LogLevel:   args.logLevel,
		ConfigFile: args.configFile,
		ByteOrder:  args.byteOrder,
		Fatal:      args.fatal,
		PrependBOM: args.prependBOM,
	}

	cfg, err := config.LoadWithOverrides(opts)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := setupLogging(cfg.Logging); err != nil {
		return err
	}

	server := createServer(cfg)
	logging.Info("starting server on %s:%s (TLS=%t, order=%s)", cfg.Server.Host, cfg.Server.Port, cfg.Security.EnableTLS, cfg.Encoder.ByteOrder)

	return startServer(server, cfg)
}

func createServer(cfg *config.Config) *http.Server {
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	mux := http.NewServeMux()
	if dist, err := web.DistFS(); err != nil {
		logging.Warn("demo page disabled: %v", err)
	} else {
		mux.Handle("/", http.FileServer(http.FS(dist)))
	}
	handler.New(cfg).Register(mux)

	h := applySecurityMiddleware(mux, cfg)
	h = requestLoggingMiddleware(h)

	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func applySecurityMiddleware(next http.Handler, cfg *config.Config) http.Handler {
	if cfg == nil {
		return securityHeadersMiddleware(corsMiddleware(next, nil))
	}

	h := corsMiddleware(next, cfg.Security.AllowedOrigins)
	h = securityHeadersMiddleware(h)

	return h
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// The demo page loads its script and styles from the same origin
		w.Header().Set("Content-Security-Policy", "default-src 'self'; connect-src 'self' ws: wss:")

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if handler.OriginAllowed(origin, allowedOrigins) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Type, Content-Length")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func setupLogging(cfg config.LoggingConfig) error {
	log.SetFlags(log.LstdFlags | log.LUTC)

	if err := logging.Configure(cfg); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController and the WebSocket upgrader reach the
// underlying connection.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.Info("%s %s %s %d %s", r.RemoteAddr, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func startServer(server *http.Server, cfg *config.Config) error {
	if server == nil {
		return fmt.Errorf("server is nil")
	}

	var err error
	if cfg != nil && cfg.Security.EnableTLS {
		err = server.ListenAndServeTLS(cfg.Security.TLSCertFile, cfg.Security.TLSKeyFile)
	} else {
		err = server.ListenAndServe()
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func showHelp() {
	fmt.Println(appName)
	fmt.Println("USAGE: utf16-server [options]")
	fmt.Println("OPTIONS:")
	fmt.Println("  -host               Set server listen host (default 0.0.0.0)")
	fmt.Println("  -port               Set server listen port (default 8080)")
	fmt.Println("  -log-level          Set log level (debug, info, warn, error)")
	fmt.Println("  -config             Load settings from a TOML file")
	fmt.Println("  -order              Default byte order (be, le)")
	fmt.Println("  -fatal              Reject lone surrogates by default")
	fmt.Println("  -bom                Prepend a byte order mark by default")
	fmt.Println("  -version            Show version information")
	fmt.Println("  -help               Show this help message")
	fmt.Println("ENDPOINTS: GET / (demo page), POST /encode, GET /stream (WebSocket), GET /healthz")
	fmt.Println("ENVIRONMENT VARIABLES: CONFIG_FILE, SERVER_HOST, SERVER_PORT, LOG_LEVEL, LOG_FORMAT, ENCODER_BYTE_ORDER, ENCODER_FATAL, ALLOWED_ORIGINS")
	fmt.Println("EXAMPLES: utf16-server -port 8080 -order le")
}

func showVersion() {
	fmt.Printf("%s %s\n", appName, appVersion)
	fmt.Println("Built with Go", time.Now().Year())
	fmt.Printf("Encodings: %s, %s\n", utf16.LabelBE, utf16.LabelLE)
}
