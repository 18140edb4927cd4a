package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/blas/cblas128"
)

func newDistanceCmd(a *app) *cobra.Command {
	var withGradient bool
	cmd := &cobra.Command{
		Use:   "distance",
		Short: "Estimate the distance between op·ψ and a perturbed candidate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			if !withGradient {
				d, err := s.est.Distance(cmd.Context(), s.ref, s.cand, s.op, s.unitary, s.ens)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "distance: %.12g\n", d)
				return nil
			}

			grad := make([]complex128, s.cand.NumActiveParams())
			d, err := s.est.Gradient(cmd.Context(), s.ref, s.cand, s.op, s.unitary, s.ens, grad)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "distance: %.12g\n", d)
			fmt.Fprintf(out, "gradient norm: %.12g\n", gradNorm(grad))
			for k, g := range grad {
				fmt.Fprintf(out, "%d\t% .10e\t% .10e\n", k, real(g), imag(g))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withGradient, "gradient", false, "also print the gradient with respect to the candidate")
	return cmd
}

func gradNorm(grad []complex128) float64 {
	return cblas128.Nrm2(cblas128.Vector{N: len(grad), Inc: 1, Data: grad})
}
