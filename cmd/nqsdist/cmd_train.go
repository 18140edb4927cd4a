package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newTrainCmd(a *app) *cobra.Command {
	var (
		steps       int
		lr          float64
		historyDir  string
		metricsAddr string
		every       int
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the candidate to op·ψ by gradient descent on the distance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("steps") {
				a.cfg.Train.Steps = steps
			}
			if cmd.Flags().Changed("lr") {
				a.cfg.Train.LearningRate = lr
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			if metricsAddr != "" {
				stop := serveMetrics(metricsAddr, a.logger)
				defer stop()
			}

			var history *History
			if historyDir != "" {
				h, err := OpenHistory(historyDir)
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				history = h
			}

			s, err := a.newSession()
			if err != nil {
				history.Close("failed", 0)
				return err
			}
			defer s.Close()
			history.Begin(a.cfg.Spins, a.cfg.Hidden, s.exec.Backend().String(), a.cfg.Operator.Kind, a.cfg.Ensemble.Kind)

			res, err := train(cmd.Context(), a, s, history, every, cmd.OutOrStdout())
			if err != nil {
				history.Close("failed", res.steps)
				return err
			}
			status := "max_steps"
			if res.converged {
				status = "converged"
			}
			history.Close(status, res.steps)

			fmt.Fprintf(cmd.OutOrStdout(), "final distance: %.10g after %d steps (%s)\n", res.distance, res.steps, status)
			if history != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "history: %s\n", history.Path())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "number of gradient steps (overrides train.steps)")
	cmd.Flags().Float64Var(&lr, "lr", 0, "learning rate (overrides train.learning_rate)")
	cmd.Flags().StringVar(&historyDir, "history", "", "directory for the JSONL step history")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while training")
	cmd.Flags().IntVar(&every, "every", 10, "print the distance every n steps")
	return cmd
}

type trainResult struct {
	distance  float64
	steps     int
	converged bool
}

// train runs plain gradient descent θ -= lr·∇D until the distance drops
// below the tolerance or the step budget is spent.
func train(ctx context.Context, a *app, s *session, history *History, every int, out io.Writer) (trainResult, error) {
	cfg := a.cfg.Train
	grad := make([]complex128, s.cand.NumActiveParams())
	var res trainResult
	for step := 0; ; step++ {
		d, err := s.est.Gradient(ctx, s.ref, s.cand, s.op, s.unitary, s.ens, grad)
		if err != nil {
			return res, err
		}
		norm := gradNorm(grad)
		res.distance, res.steps = d, step
		history.Step(step, d, norm)
		if every > 0 && step%every == 0 {
			fmt.Fprintf(out, "step %d\tdistance %.10g\tgradient %.4g\n", step, d, norm)
		}
		a.logger.DebugContext(ctx, "train step", slog.Int("step", step), slog.Float64("distance", d), slog.Float64("grad_norm", norm))

		if d <= cfg.Tolerance {
			res.converged = true
			return res, nil
		}
		if step == cfg.Steps {
			return res, nil
		}
		params := s.cand.Params()
		for k, g := range grad {
			params[k] -= complex(cfg.LearningRate, 0) * g
		}
		if err := s.cand.SetParams(params); err != nil {
			return res, err
		}
	}
}

// serveMetrics exposes /metrics on addr until the returned function is
// called.
func serveMetrics(addr string, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", slog.String("addr", addr), slog.Any("error", err))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
