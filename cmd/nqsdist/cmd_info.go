package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/cpu"

	"github.com/ajroetker/go-nqs/nqs"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the configured backend and CPU capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, release, err := a.cfg.NewExecutor()
			if err != nil {
				return err
			}
			defer release()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "backend:    %s\n", exec.Backend())
			if d, ok := exec.(*nqs.Device); ok {
				fmt.Fprintf(out, "workers:    %d\n", d.Workers())
				fmt.Fprintf(out, "max lanes:  %d\n", d.Capacity())
			}
			fmt.Fprintf(out, "GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
			fmt.Fprintf(out, "arch:       %s\n", runtime.GOARCH)
			fmt.Fprintf(out, "features:   %s\n", strings.Join(cpuFeatures(), " "))
			fmt.Fprintf(out, "shape:      %d spins, %d hidden\n", a.cfg.Spins, a.cfg.Hidden)
			return nil
		},
	}
}

// cpuFeatures lists the vector extensions reported by x/sys/cpu.
func cpuFeatures() []string {
	var features []string
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64":
		add(cpu.X86.HasSSE41, "sse4.1")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasSVE, "sve")
		add(cpu.ARM64.HasSVE2, "sve2")
	}
	if len(features) == 0 {
		features = append(features, "none")
	}
	return features
}
