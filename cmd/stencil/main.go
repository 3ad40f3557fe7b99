// Command stencil is the developer entry point for the code generation
// core: it runs event-stream harness cases against the built-in fixtures
// and provides a watch loop for model files.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skellig/stencil"
	"github.com/skellig/stencil/compiler/gen"
	"github.com/skellig/stencil/compiler/gen/client"
	"github.com/skellig/stencil/compiler/gen/server"
	"github.com/skellig/stencil/compiler/load"
	"github.com/skellig/stencil/harness"
	"github.com/skellig/stencil/model"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "stencil:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stencil",
		Short:         "model-driven code generation core",
		Version:       stencil.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newHarnessCmd(), newWatchCmd())
	return root
}

func newHarnessCmd() *cobra.Command {
	var (
		modeFlag      string
		directionFlag string
		protoFlag     string
		recordFlag    string
		outFlag       string
	)
	cmd := &cobra.Command{
		Use:   "harness",
		Short: "generate, build, and test one event-stream case",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseMode(modeFlag)
			if err != nil {
				return err
			}
			dir, err := parseDirection(directionFlag)
			if err != nil {
				return err
			}
			proto, err := parseProtocol(protoFlag)
			if err != nil {
				return err
			}
			tc, err := findCase(proto)
			if err != nil {
				return err
			}
			backend, err := newBackend(mode)
			if err != nil {
				return err
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()

			opts := []harness.RunOption{harness.WithRunLogger(logger)}
			if outFlag != "" {
				opts = append(opts, harness.WithProjectOptions(harness.WithRoot(outFlag)))
			}
			if recordFlag != "" {
				rec, err := harness.OpenRecorder(recordFlag)
				if err != nil {
					return err
				}
				defer rec.Close()
				opts = append(opts, harness.WithRecorder(rec))
			}
			return harness.RunTestCase(cmd.Context(), tc, backend, mode, dir, opts...)
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", "client", "generation mode: client or server")
	cmd.Flags().StringVar(&directionFlag, "direction", "marshall", "wire direction: marshall or unmarshall")
	cmd.Flags().StringVar(&protoFlag, "proto", "restJson", "protocol: restJson, restXml, or rpcMsgpack")
	cmd.Flags().StringVar(&recordFlag, "record", "", "sqlite file recording case results")
	cmd.Flags().StringVar(&outFlag, "out", "", "workspace directory (kept after the run); default is a temp dir")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var modelFlag string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "re-parse and analyze a model file on every change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := gen.NewConfig(gen.WithMode(gen.ModeServer))
			if err != nil {
				return err
			}
			resolver := gen.NewSymbolResolver(cfg)

			err = load.Watch(ctx, modelFlag, func(m *model.Model, err error) {
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "parse failed: %v\n", err)
					return
				}
				printAnalysis(cmd.OutOrStdout(), m, resolver)
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&modelFlag, "model", "", "model file to watch")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

// printAnalysis prints one line per shape with its constraint
// classification.
func printAnalysis(w io.Writer, m *model.Model, r *gen.SymbolResolver) {
	fmt.Fprintf(w, "parsed %d shapes\n", m.Len())
	for _, s := range m.Shapes() {
		if s.ID.IsBuiltin() || s.ID.IsMember() {
			continue
		}
		direct := r.IsDirectlyConstrained(s)
		reach := gen.CanReachConstrainedShape(m, s, r)
		if !direct && !reach {
			continue
		}
		fmt.Fprintf(w, "  %-40s direct=%-5v reachable=%v\n", s.ID, direct, reach)
	}
}

func newBackend(mode gen.Mode) (gen.Backend, error) {
	switch mode {
	case gen.ModeClient:
		return client.New()
	case gen.ModeServer:
		return server.New()
	default:
		return nil, fmt.Errorf("unknown mode %v", mode)
	}
}

func parseMode(s string) (gen.Mode, error) {
	switch s {
	case "client":
		return gen.ModeClient, nil
	case "server":
		return gen.ModeServer, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want client or server)", s)
	}
}

func parseDirection(s string) (gen.Direction, error) {
	switch s {
	case "marshall":
		return gen.Marshall, nil
	case "unmarshall":
		return gen.Unmarshall, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (want marshall or unmarshall)", s)
	}
}

func parseProtocol(s string) (model.ShapeID, error) {
	for _, proto := range model.KnownProtocols() {
		if proto.Name() == s {
			return proto, nil
		}
	}
	return "", fmt.Errorf("unknown protocol %q", s)
}

func findCase(proto model.ShapeID) (harness.WireCase, error) {
	for _, tc := range harness.Cases() {
		if tc.Protocol == proto {
			return tc, nil
		}
	}
	return harness.WireCase{}, fmt.Errorf("no harness case for protocol %s", proto)
}
