// Command huffman compresses and decompresses files with Huffman coding.
//
//	huffman                 interactive mode
//	huffman -h              display help
//	huffman -c SOURCE DEST  compress SOURCE to DEST
//	huffman -d SOURCE DEST  decompress SOURCE to DEST
//	huffman serve           run the HTTP service
//	huffman worker          run the Pub/Sub job worker
//
// SOURCE and DEST are local paths or gs://bucket/object URLs.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/huffpack/huffman"
	"github.com/huffpack/huffman/internal/config"
	"github.com/huffpack/huffman/internal/logging"
	"github.com/huffpack/huffman/internal/server"
	hstorage "github.com/huffpack/huffman/internal/storage"
	"github.com/huffpack/huffman/internal/worker"
)

const helpText = `
NAME
	huffman

SYNOPSIS
	huffman
	huffman [OPTION] SOURCE DEST
	huffman serve [-addr ADDR]
	huffman worker [-sub SUBSCRIPTION]

DESCRIPTION
	Compresses or decompresses the file SOURCE by using Huffman coding and saves it in the file DEST.
	SOURCE and DEST may be gs://bucket/object URLs.

	-h
		display this help and exit.

	-c
		compress SOURCE to DEST.

	-d
		decompress SOURCE to DEST.

	serve
		run the HTTP service (POST /compress, POST /decompress).

	worker
		process compress and decompress jobs received over Pub/Sub.

`

const badParams = "bad parameters. Please use the huffman -h for more information"

const emptyFileText = "This file is empty. Please give a file with at least one character"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	logger := logging.Install(logging.New(stderr, cfg.DevelopmentMode))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mode, src, dst string
	switch {
	case len(args) == 0:
		mode, src, dst, err = prompt(stdin, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			return 1
		}

	case args[0] == "-h":
		if len(args) != 1 {
			fmt.Fprintf(stderr, "ERROR: %s\n", badParams)
			return 1
		}
		fmt.Fprint(stdout, helpText)
		return 0

	case args[0] == "serve":
		err = serve(ctx, cfg, logger, args[1:])

	case args[0] == "worker":
		err = runWorker(ctx, cfg, logger, args[1:])

	case args[0] == "-c" || args[0] == "-d":
		if len(args) != 3 {
			fmt.Fprintf(stderr, "ERROR: %s\n", badParams)
			return 1
		}
		mode, src, dst = args[0][1:], args[1], args[2]

	default:
		fmt.Fprintf(stderr, "ERROR: %s\n", badParams)
		return 1
	}

	if mode != "" {
		err = archive(ctx, cfg, logger, stdout, mode, src, dst)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	return 0
}

// prompt asks for the operation and the file names on stdin.  The operation
// is asked again until the answer is 'c' or 'd'.
func prompt(stdin io.Reader, stdout io.Writer) (mode, src, dst string, err error) {
	scanner := bufio.NewScanner(stdin)
	ask := func(question string) (string, error) {
		fmt.Fprint(stdout, question)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	var choice string
	for choice != "c" && choice != "d" {
		choice, err = ask("\nPress 'c' to compress a file or 'd' to decompress it: ")
		if err != nil {
			return "", "", "", fmt.Errorf("can't get the user choice: %w", err)
		}
	}
	if choice == "c" {
		src, err = ask("\nEnter the name of the file that will be compressed: ")
	} else {
		src, err = ask("\nEnter the name of the file that will be decompressed: ")
	}
	if err != nil {
		return "", "", "", fmt.Errorf("can't get the file name: %w", err)
	}
	dst, err = ask("\nEnter the name of the file in which you want to save the result: ")
	if err != nil {
		return "", "", "", fmt.Errorf("can't get the file name: %w", err)
	}
	return choice, src, dst, nil
}

func archive(ctx context.Context, cfg config.Config, logger *slog.Logger, stdout io.Writer, mode string, srcLoc string, dstLoc string) error {
	logger = logger.With("job", uuid.New().String(), "source", srcLoc, "destination", dstLoc)

	store := &hstorage.Store{}
	if strings.HasPrefix(srcLoc, "gs://") || strings.HasPrefix(dstLoc, "gs://") {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("cannot create new client for GCS: %w", err)
		}
		defer client.Close()
		store.GCS = &hstorage.RealGCSClient{Client: client}

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.GCSTimeout)
		defer cancel()
	}

	src, err := store.OpenSource(ctx, srcLoc)
	if err != nil {
		return err
	}
	defer src.Close()

	if mode == "c" {
		size, err := src.Seek(0, io.SeekEnd)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", srcLoc, err)
		}
		if size == 0 {
			fmt.Fprintln(stdout, emptyFileText)
			return nil
		}
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to read %s: %w", srcLoc, err)
		}
	}

	dst, err := store.CreateDestination(ctx, dstLoc)
	if err != nil {
		return err
	}

	start := time.Now()
	a := huffman.Archiver{Logger: logger}
	var stats huffman.Stats
	if mode == "c" {
		fmt.Fprintf(stdout, "Compressing %s...\n", srcLoc)
		stats, err = a.Compress(dst, src)
	} else {
		fmt.Fprintf(stdout, "Decompressing %s...\n", srcLoc)
		stats, err = a.Decompress(dst, src)
	}
	if err != nil {
		_ = dst.Abort()
		if errors.Is(err, huffman.ErrEmptyInput) {
			fmt.Fprintln(stdout, emptyFileText)
			return nil
		}
		return err
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to save %s: %w", dstLoc, err)
	}

	fmt.Fprintf(stdout, "Done (%.2f s)\n", time.Since(start).Seconds())
	if mode == "c" {
		fmt.Fprintf(stdout, "%.2f kB compressed to %.2f kB (%.2f %%)\n",
			float64(stats.OriginalSize)/1000, float64(stats.CompressedSize)/1000, stats.Ratio())
	}
	return nil
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.HTTPAddr, "address to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.New(logger, cfg.MaxUploadSize, cfg.MaxOutputSize).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", *addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runWorker(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	subID := fs.String("sub", cfg.SubID, "Pub/Sub subscription to receive jobs from")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.SubID = *subID
	if err := cfg.RequireWorker(); err != nil {
		return err
	}

	gcsClient, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("cannot create new client for GCS: %w", err)
	}
	defer gcsClient.Close()
	logger.Debug("Initialized a GCS client.")

	pubsubClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return fmt.Errorf("cannot create new client for Pub/Sub: %w", err)
	}
	defer pubsubClient.Close()
	logger.Debug("Initialized a Pub/Sub client.")

	app := &worker.Application{
		Store:         &hstorage.Store{GCS: &hstorage.RealGCSClient{Client: gcsClient}},
		Logger:        logger,
		GCSTimeout:    cfg.GCSTimeout,
		PubSubClient:  &worker.RealPubSubClient{Client: pubsubClient},
		ResultTopicID: cfg.ResultTopicID,
	}
	return app.Run(ctx, pubsubClient, cfg.SubID)
}
