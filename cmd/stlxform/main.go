// stlxform applies an ordered chain of affine transforms to an STL mesh.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Faultbox/stlxform/internal/config"
	"github.com/Faultbox/stlxform/internal/logger"
	"github.com/Faultbox/stlxform/internal/pipeline"
	"github.com/Faultbox/stlxform/pkg/xform"
)

// Transform flags are order-sensitive, so the root command hands its raw
// arguments to xform.Parser instead of letting cobra sort them into a flag set.
var rootCmd = &cobra.Command{
	Use:   "stlxform [transform flags] [-i in.stl] [-o out.stl]",
	Short: "Apply translations, rotations and mirrors to STL meshes",
	Long: `stlxform reads an STL mesh (binary or ASCII), applies transform
operations in the order they are given, and writes the result.

Transform flags (applied left to right):
  -t, --translate X,Y,Z   move by (X, Y, Z)
      --rx A              rotate about X by A
      --ry A              rotate about Y by A
      --rz A              rotate about Z by A
      --mx, --my, --mz    mirror across the YZ, XZ or XY plane
      --center            move the bounding-box center to the origin

Angles are radians unless --degrees is given or the config sets
transform.angle_unit: degrees.

Settings:
  -i, --input PATH        input file (default: standard input)
  -o, --output PATH       output file (default: standard output)
      --format F          output encoding: auto, binary or ascii
      --name NAME         solid name / binary header text
      --degrees           read rotation angles as degrees
      --stream            write binary output as it is produced even when
                          it cannot be rewound (a pipe). Without it such
                          output is held in memory until the end so the
                          triangle count is always right; with it a short
                          input fails with a count mismatch
      --config PATH       config file
      --debug             debug logging
      --log-file PATH     also log to a rotated file
  -h, --help              show this help

Example:
  stlxform -i part.stl -o out.stl --rx 1.5708 -t 0,0,10 --mz`,
	DisableFlagParsing: true,
	Args:               cobra.ArbitraryArgs,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE:               runTransform,
}

// settings collects the non-transform flags of a run.
type settings struct {
	input, output string
	format, name  string
	configPath    string
	logFile       string
	degrees       bool
	stream        bool
	debug         bool
	help          bool
}

func newParser(s *settings) *xform.Parser {
	p := xform.NewParser()
	p.StringVar(&s.input, "-i", "--input")
	p.StringVar(&s.output, "-o", "--output")
	p.StringVar(&s.format, "--format")
	p.StringVar(&s.name, "--name")
	p.StringVar(&s.configPath, "--config")
	p.StringVar(&s.logFile, "--log-file")
	p.BoolVar(&s.degrees, "--degrees")
	p.BoolVar(&s.stream, "--stream")
	p.BoolVar(&s.debug, "--debug")
	p.BoolVar(&s.help, "-h", "--help")
	return p
}

func runTransform(cmd *cobra.Command, args []string) error {
	var s settings
	ops, err := newParser(&s).Parse(args)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
		return err
	}
	if s.help {
		return cmd.Help()
	}

	cfg, err := config.Load(config.Overrides{
		ConfigPath: s.configPath,
		Debug:      s.debug,
		LogFile:    s.logFile,
		Format:     s.format,
		SolidName:  s.name,
		Degrees:    s.degrees,
	})
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Degrees() {
		ops = ops.DegreesToRadians()
	}

	_, err = pipeline.Run(pipeline.Options{
		Input:     s.input,
		Output:    s.output,
		Format:    cfg.OutputFormat(),
		SolidName: cfg.Output.SolidName,
		Stream:    s.stream,
		Stdin:     cmd.InOrStdin(),
		Stdout:    cmd.OutOrStdout(),
	}, ops)
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
