package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/user/model-router-go/internal/api"
	"github.com/user/model-router-go/internal/api/middleware"
	"github.com/user/model-router-go/internal/config"
	"github.com/user/model-router-go/internal/models"
	"github.com/user/model-router-go/internal/service"
	"github.com/user/model-router-go/internal/version"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v":
			fmt.Println(version.Info())
			os.Exit(0)
		case "--help", "-h":
			printUsage()
			os.Exit(0)
		}
	}
	if err := run(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func printUsage() {
	fmt.Printf("Model Router - %s\n\n", version.Short())
	fmt.Println("Usage: model-router [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v  Show version information")
	fmt.Println("  --help, -h     Show this help message")
	fmt.Println()
	fmt.Println("Without options, starts the model routing server.")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  Use MODEL_ROUTER_* environment variables or a .env file")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logDir := getLogDir()
	logger, err := newLogger(cfg.Server.LogLevel, logDir, cfg.LogRotation)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting model-router",
		zap.String("version", version.Short()),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	// Wire the routing core.
	strategy, ok := models.ParseStrategy(cfg.Routing.DefaultStrategy)
	if !ok {
		return fmt.Errorf("unknown default strategy %q", cfg.Routing.DefaultStrategy)
	}
	router := service.NewRouter(
		service.RouterOptions{
			DefaultProvider:  cfg.Routing.DefaultProvider,
			DefaultStrategy:  strategy,
			CostOptimization: cfg.Routing.CostOptimization,
			AutoFallback:     cfg.Routing.AutoFallback,
		},
		service.NewComplexityAnalyzer(logger),
		service.NewModelRegistry(logger),
		service.NewSelector(logger),
		service.NewFallbackRouter(cfg.Circuit.FailureThreshold, cfg.Circuit.RecoveryTimeout, logger),
		service.NewHealthMonitor(cfg.Health.SlowResponseThresholdMs, logger),
		service.NewCostTracker(logger),
		service.NewLatencyOptimizer(cfg.Latency.DefaultTimeoutMs, logger),
		service.NewResponseCache(cfg.Cache.TTL, cfg.Cache.MaxEntries, logger),
		service.NewQualityComparator(logger),
		logger,
	)

	server := api.NewServer(api.ServerDeps{
		Router: router,
		RateLimit: &middleware.RateLimitConfig{
			Enabled:       cfg.RateLimit.Enabled,
			MaxRequests:   cfg.RateLimit.MaxRequests,
			WindowSeconds: cfg.RateLimit.WindowSeconds,
		},
		Logger: logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("addr", addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func newLogger(level string, logDir string, rotation config.LogRotationConfig) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug", "DEBUG":
		zapLevel = zap.DebugLevel
	case "warn", "WARN":
		zapLevel = zap.WarnLevel
	case "error", "ERROR":
		zapLevel = zap.ErrorLevel
	default:
		zapLevel = zap.InfoLevel
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", logDir, err)
	}

	lj := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "model-router.log"),
		MaxSize:    rotation.MaxSizeMB,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAgeDays,
		Compress:   rotation.Compress,
	}

	// File core: JSON encoder for structured log parsing
	fileEncoderCfg := zap.NewProductionEncoderConfig()
	fileEncoderCfg.TimeKey = "ts"
	fileEncoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(fileEncoderCfg),
		zapcore.AddSync(lj),
		zapLevel,
	)

	// Console core: human-readable output to stdout/stderr
	consoleEncoderCfg := zap.NewDevelopmentEncoderConfig()
	consoleEncoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleEncoder := zapcore.NewConsoleEncoder(consoleEncoderCfg)

	// stdout for DEBUG/INFO, stderr for WARN/ERROR+
	stdoutCore := zapcore.NewCore(
		consoleEncoder,
		zapcore.Lock(os.Stdout),
		zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= zapLevel && l < zapcore.WarnLevel
		}),
	)
	stderrCore := zapcore.NewCore(
		consoleEncoder,
		zapcore.Lock(os.Stderr),
		zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= zapLevel && l >= zapcore.WarnLevel
		}),
	)

	core := zapcore.NewTee(fileCore, stdoutCore, stderrCore)

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	), nil
}

func getLogDir() string {
	if dir := os.Getenv("MODEL_ROUTER_LOGS_DIR"); dir != "" {
		return dir
	}
	return "logs"
}
