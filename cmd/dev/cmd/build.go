package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

// boards maps the supported boards to their GOOS/GOARCH.
var boards = map[string][2]string{
	"raspi":  {"linux", "arm64"},
	"raspi0": {"linux", "arm"},
	"nanopi": {"linux", "arm"},
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the accel cli",
		Long: `Build the accel cli natively or for one of the supported boards.

All bus backends are pure Go, so cross builds run on the host. --docker builds
inside the gobuild image instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			os := cmd.Flag("os").Value.String()
			arch := cmd.Flag("arch").Value.String()
			version := cmd.Flag("version").Value.String()
			board := cmd.Flag("board").Value.String()
			if board != "" {
				target, ok := boards[board]
				if !ok {
					return fmt.Errorf("unknown board %q", board)
				}
				os, arch = target[0], target[1]
			}
			docker, err := cmd.Flags().GetBool("docker")
			if err != nil {
				return fmt.Errorf("could not get docker flag: %w", err)
			}

			if !docker {
				out := "dist/accel"
				if os != runtime.GOOS || arch != runtime.GOARCH {
					out = fmt.Sprintf("dist/accel-%s-%s", os, arch)
				}
				slog.Info("building", "output", out, "os", os, "arch", arch, "version", version)
				return build.GoBuild(out, "./cmd/accel", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "github.com/mklimuk/adxl345/config",
					Arch:          arch,
					OS:            os,
				})
			}

			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", os, arch), []string{"build", "--version", version, "--os", os, "--arch", arch}, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   "gophertribe/gobuild:1.25-bookworm",
			})
		},
	}
	cmd.Flags().Bool("docker", false, "build inside docker")
	cmd.Flags().Bool("no-cache", false, "do not use cache when building in docker")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("board", "", "target board (raspi, raspi0, nanopi), overrides os and arch")

	return cmd
}
