package main

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-nqs/nqs"
)

func newVectorCmd(a *app) *cobra.Command {
	var normalize bool
	cmd := &cobra.Command{
		Use:   "vector",
		Short: "Print the amplitude of every configuration of the reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, release, err := a.cfg.NewExecutor()
			if err != nil {
				return err
			}
			defer release()
			ref, err := a.cfg.NewPsi(exec)
			if err != nil {
				return err
			}
			vec, err := ref.Vector(cmd.Context())
			if err != nil {
				return err
			}

			scale := 1.0
			if normalize {
				var norm float64
				for _, v := range vec {
					norm += real(v)*real(v) + imag(v)*imag(v)
				}
				scale = 1 / math.Sqrt(norm)
			}
			out := cmd.OutOrStdout()
			for i, v := range vec {
				v *= complex(scale, 0)
				fmt.Fprintf(out, "%s\t% .10f\t% .10f\t%.10f\n", nqs.Spins(i).Format(ref.NumSpins()), real(v), imag(v), cmplx.Abs(v))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&normalize, "normalize", false, "divide amplitudes by the norm of the vector")
	return cmd
}
