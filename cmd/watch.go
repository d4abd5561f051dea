package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jackchuka/allerscan/internal/camera"
	"github.com/jackchuka/allerscan/internal/logging"
	"github.com/jackchuka/allerscan/internal/permission"
	"github.com/jackchuka/allerscan/internal/session"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print allergens for each scan without the interactive screen",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	log, closer, err := logging.New("", cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	access, err := permission.Resolve(ctx, newPermissionProvider(true))
	if err != nil {
		log.Warn().Err(err).Msg("camera permission")
	}
	if access != permission.Granted {
		return errors.New("no access to camera")
	}

	det, err := newDetectorOpener()()
	if err != nil {
		return err
	}
	defer det.Close()

	sess := session.New(newLookup(),
		session.WithCamera(det),
		session.WithFacing(camera.ParseFacing(cfg.DefaultFacing)),
		session.WithLogger(log),
	)

	go det.Run(ctx)
	log.Info().Str("device", cfg.BackDevice).Msg("waiting for scans")

	return watchLoop(ctx, sess, det.Events(), cmd.OutOrStdout())
}

// watchLoop resolves each detection, prints it and re-arms for the next one.
func watchLoop(ctx context.Context, sess *session.Session, events <-chan camera.Detection, out io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case det, ok := <-events:
			if !ok {
				return nil
			}
			result, ok := sess.HandleScan(ctx, det.Payload)
			if ctx.Err() != nil {
				// Interrupted mid-lookup; the result is not the product's
				return nil
			}
			if ok {
				if err := printResult(out, det, result); err != nil {
					return err
				}
			}
			sess.Reset()
		}
	}
}

func printResult(w io.Writer, det camera.Detection, result string) error {
	header := "Scanned! " + det.Payload
	if det.Symbology != "" && det.Symbology != camera.Unknown {
		header += " (" + string(det.Symbology) + ")"
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n\n", header, result)
	return err
}
