package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gregLibert/modem-core/pkg/dataprofile"
	"github.com/gregLibert/modem-core/pkg/iso7816"
	"github.com/gregLibert/modem-core/pkg/metrics"
	"github.com/gregLibert/modem-core/pkg/pcsc"
	"github.com/gregLibert/modem-core/pkg/uicc"
)

func main() {
	readerIndex := flag.Int("reader", 0, "index of the PC/SC reader to use")
	apnsPath := flag.String("apns", "", "path to a JSON APN provisioning file")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address and wait for a signal")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	flag.Parse()

	logger := newLogger(*logLevel, *logFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *readerIndex, *apnsPath, *metricsAddr); err != nil {
		logger.Error("modem-core failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, readerIndex int, apnsPath, metricsAddr string) error {
	collector, err := metrics.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if metricsAddr != "" {
		srv := serveMetrics(logger, metricsAddr, collector)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	// --- 1. Hardware Setup ---
	if names, err := pcsc.Readers(); err == nil {
		logger.Debug("PC/SC readers", slog.Any("names", names))
	}
	reader, err := pcsc.Open(readerIndex)
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Warn("failed to close reader", slog.Any("error", err))
		}
	}()
	fmt.Printf(">> Using reader: %s\n", reader.Name)

	state, err := reader.CardState()
	if err != nil {
		return err
	}

	// --- 2. Card Status ---
	client := iso7816.NewClient(reader)
	cls, err := iso7816.UICCClass(0)
	if err != nil {
		return err
	}
	mf := uicc.NewISOFileHandler(client, cls, nil, nil)

	status, err := uicc.ReadCardStatus(ctx, mf, mf, state)
	if err != nil {
		return fmt.Errorf("read card status: %w", err)
	}

	card := uicc.NewCard(uicc.WithLogger(logger), uicc.WithRecorder(collector))
	defer card.Dispose()

	err = card.Update(status, func(app uicc.AppStatus) uicc.FileHandler {
		aid, _ := hex.DecodeString(app.AID)
		return uicc.NewISOFileHandler(client, cls, aid, nil)
	})
	if err != nil {
		return err
	}
	printStatus(status)

	// --- 3. Subscription Files ---
	if records, err := card.SubscriptionRecords(); err != nil {
		logger.Warn("no subscription application", slog.Any("error", err))
	} else {
		printIdentity(ctx, logger, records)
	}

	// --- 4. Data Profiles ---
	if apnsPath != "" {
		if err := printProfiles(apnsPath, logger, collector); err != nil {
			return err
		}
	}

	if metricsAddr != "" {
		fmt.Printf("\n>> Serving metrics on %s, interrupt to exit\n", metricsAddr)
		<-ctx.Done()
	}
	return nil
}

func newLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func serveMetrics(logger *slog.Logger, addr string, collector *metrics.Collector) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()
	return srv
}

func printStatus(status uicc.CardStatus) {
	fmt.Println("\n=============================================")
	fmt.Println(" Card Status")
	fmt.Println("=============================================")
	fmt.Println(status)

	for i, app := range status.Apps() {
		fmt.Printf("   [App %d] %s\n", i, app)
	}
}

func printIdentity(ctx context.Context, logger *slog.Logger, records *uicc.Records) {
	fmt.Println("\n=============================================")
	fmt.Printf(" Subscription (%s)\n", records.App().Type)
	fmt.Println("=============================================")

	if iccid, err := records.ReadICCID(ctx); err != nil {
		logger.Warn("ICCID unavailable", slog.Any("error", err))
	} else {
		fmt.Printf("   ICCID: %s\n", iccid)
	}

	if imsi, err := records.ReadIMSI(ctx); err != nil {
		var se *iso7816.StatusError
		if errors.As(err, &se) && se.Status == iso7816.SW_ERR_SECURITY_STATUS_NOT_SAT {
			fmt.Println("   IMSI: protected, PIN1 not verified")
			return
		}
		logger.Warn("IMSI unavailable", slog.Any("error", err))
	} else {
		fmt.Printf("   IMSI:  %s\n", imsi)
	}
}

func printProfiles(path string, logger *slog.Logger, collector *metrics.Collector) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open apn config: %w", err)
	}
	defer f.Close()

	settings, err := dataprofile.LoadApnConfig(f, dataprofile.WithLogger(logger), dataprofile.WithRecorder(collector))
	if err != nil {
		return err
	}

	store := dataprofile.NewStore()
	for _, s := range settings {
		if _, added := store.Add(s); !added {
			logger.Info("duplicate APN skipped", slog.String("apn", s.ShortString()))
		}
	}

	fmt.Println("\n=============================================")
	fmt.Printf(" Data Profiles (%d loaded)\n", store.Len())
	fmt.Println("=============================================")

	for _, v := range dataprofile.IPVersions {
		matches := store.Find(dataprofile.ServiceDefault, v)
		fmt.Printf("   default over %s: %d candidate(s)\n", v, len(matches))
		for _, p := range matches {
			fmt.Printf("      - %s\n", p.ShortString())
		}
	}
	return nil
}
