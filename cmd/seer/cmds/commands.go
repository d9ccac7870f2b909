package cmds

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dle9/seer/pkg/config"
	"github.com/dle9/seer/pkg/logflags"
	"github.com/dle9/seer/pkg/proc"
	"github.com/dle9/seer/pkg/proc/native"
	"github.com/dle9/seer/pkg/version"
)

var (
	// pid is the process ID of the target.
	pid int
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string

	conf *config.Config

	rootCommand *cobra.Command
)

const seerLongDesc = `Seer prints the strings held in the live memory of another process.

It attaches to the target with ptrace, which suspends it, reads every
scannable region of its address space and prints each run of at least four
printable ASCII characters, tagged with the absolute address it was found at.
Regions that are not readable, and mappings of files under /usr, are left
out. The target is resumed when the scan completes.

Reading another process requires ptrace privileges: run as the owner of the
target with kernel.yama.ptrace_scope=0, with CAP_SYS_PTRACE, or as root.`

// New returns an initialized command tree. When docCall is true the config
// file is neither read nor created, so the tree can be inspected or used for
// usage documentation without touching the user's home directory.
func New(docCall bool) *cobra.Command {
	if !docCall {
		conf = config.LoadConfig()
	}

	rootCommand = &cobra.Command{
		Use:   "seer -p pid",
		Short: "Seer prints the strings in another process' memory.",
		Long:  seerLongDesc,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(execute(pid, conf))
		},
	}
	rootCommand.Flags().IntVarP(&pid, "pid", "p", 0, "PID of the process to scan.")
	rootCommand.MarkFlagRequired("pid")
	addLogFlags(rootCommand.PersistentFlags())

	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Seer Memory Scanner\n%s\n%s\n", version.SeerVersion, version.BuildInfo())
		},
	}
	rootCommand.AddCommand(versionCommand)

	return rootCommand
}

func addLogFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&log, "log", "", false, "Enable debug logging.")
	fs.StringVarP(&logOutput, "log-output", "", "", "Comma separated list of components that should produce debug output (scanner, maps, mem).")
	fs.StringVarP(&logDest, "log-dest", "", "", "Writes log to the specified file or file descriptor number.")
}

// execute runs one attach, scan, detach pass against the target and returns
// the exit code of the process.
func execute(attachPid int, conf *config.Config) int {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logflags.Close()

	if attachPid <= 0 {
		fmt.Fprintf(os.Stderr, "Invalid pid: %d\n", attachPid)
		return 1
	}

	p, err := native.Attach(attachPid)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	out := newStringPrinter(conf)
	start := time.Now()
	report, scanErr := p.Scan(out.print)
	out.flush()

	// The target must never stay stopped, so the detach runs before the
	// scan outcome is considered. A failed detach is reported rather than
	// swallowed, but it does not discard results that were already printed.
	if err := p.Detach(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	if scanErr != nil {
		fmt.Fprintln(os.Stderr, scanErr)
		return 1
	}

	logger := logflags.ScannerLogger()
	if err := report.Errs.ErrorOrNil(); err != nil && logflags.Scanner() {
		logger.Debugf("unreadable regions: %v", err)
	}
	logger.Infof("scanned %d of %d mappings (%s) in %s: %d strings, %d unreadable",
		report.Scanned, report.Regions, humanize.IBytes(report.BytesRead),
		time.Since(start).Round(time.Millisecond), report.Strings, report.Failed)

	return 0
}

// Default color of the address column, dark blue like source line numbers in
// most pagers.
const ansiDefaultAddrColor = 34

// stringPrinter writes extracted strings to standard output, one
// "address: text" line each, coloring the address column when standard
// output is a terminal.
type stringPrinter struct {
	w        *bufio.Writer
	colorize bool
	color    int
	maxLen   int
}

func newStringPrinter(conf *config.Config) *stringPrinter {
	p := &stringPrinter{
		w:     bufio.NewWriter(colorable.NewColorableStdout()),
		color: ansiDefaultAddrColor,
	}
	if conf != nil {
		if conf.MaxStringLen != nil {
			p.maxLen = *conf.MaxStringLen
		}
		if conf.AddrColor != 0 {
			p.color = conf.AddrColor
		}
	}
	if p.color > 0 && (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())) {
		p.colorize = true
	}
	return p
}

func (p *stringPrinter) print(s proc.ExtractedString) {
	text := s.Text
	if p.maxLen > 0 && len(text) > p.maxLen {
		text = text[:p.maxLen] + "..."
	}
	if p.colorize {
		fmt.Fprintf(p.w, "\x1b[%dm%#x\x1b[0m: %s\n", p.color, s.Addr, text)
		return
	}
	fmt.Fprintf(p.w, "%#x: %s\n", s.Addr, text)
}

func (p *stringPrinter) flush() {
	p.w.Flush()
}
