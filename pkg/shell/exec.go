// Package shell provides process execution for maintainer scripts and hooks.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/dpkgo/dpkgo/pkg/logger"
)

const (
	timestampFormat = "2006-01-02 15:04:05"
	logLevelInfo    = "INFO "
)

var (
	// SetVerbose configures verbose logging output.
	SetVerbose = logger.SetVerbose
	// MultiPrinter handles concurrent output formatting.
	MultiPrinter = logger.MultiPrinter
)

// ScriptEnv carries the three directories a maintainer script or hook
// needs to see in its environment (WPKG_ROOTDIR/WPKG_INSTDIR/
// WPKG_ADMINDIR, the variable names the original wpkg build and
// maintainer-script runner export).
type ScriptEnv struct {
	RootDir  string
	InstDir  string
	AdminDir string
}

func (e ScriptEnv) asAssignments() []string {
	return []string{
		"WPKG_ROOTDIR=" + e.RootDir,
		"WPKG_INSTDIR=" + e.InstDir,
		"WPKG_ADMINDIR=" + e.AdminDir,
	}
}

// PackageDecoratedWriter decorates output with package name prefixes.
type PackageDecoratedWriter struct {
	writer      io.Writer
	packageName string
	buffer      []byte
}

// NewPackageDecoratedWriter creates a new PackageDecoratedWriter instance.
func NewPackageDecoratedWriter(writer io.Writer, packageName string) *PackageDecoratedWriter {
	return &PackageDecoratedWriter{
		writer:      writer,
		packageName: packageName,
		buffer:      make([]byte, 0, 1024),
	}
}

func (pdw *PackageDecoratedWriter) Write(p []byte) (int, error) {
	originalLen := len(p)
	pdw.buffer = append(pdw.buffer, p...)

	for {
		lineEnd := bytes.IndexByte(pdw.buffer, '\n')
		if lineEnd == -1 {
			break
		}

		line := pdw.buffer[:lineEnd+1]
		pdw.buffer = pdw.buffer[lineEnd+1:]

		if err := pdw.writeLine(line); err != nil {
			return originalLen, err
		}
	}

	return originalLen, nil
}

func (pdw *PackageDecoratedWriter) writeLine(line []byte) error {
	lineContent := strings.TrimRight(string(line), "\n\r")

	if strings.TrimSpace(lineContent) == "" {
		_, err := pdw.writer.Write(line)
		return err
	}

	timestamp := time.Now().Format(timestampFormat)

	var decoratedLine string
	if logger.IsColorDisabled() {
		decoratedLine = fmt.Sprintf("%s %s  [%s] %s\n", timestamp, logLevelInfo,
			pdw.packageName, lineContent)
	} else {
		decoratedLine = pterm.Sprintf("%s %s  [%s] %s\n",
			pterm.FgGray.Sprint(timestamp),
			pterm.NewStyle(pterm.FgGreen, pterm.Bold).Sprint(logLevelInfo),
			pterm.FgYellow.Sprint(pdw.packageName),
			lineContent,
		)
	}

	_, err := pdw.writer.Write([]byte(decoratedLine))

	return err
}

// Exec executes a command in the specified directory with optional stdout exclusion.
func Exec(excludeStdout bool, dir, name string, args ...string) error {
	return ExecWithContext(context.Background(), excludeStdout, dir, name, args...)
}

// ExecWithContext executes a command with context for cancellation control.
func ExecWithContext(
	ctx context.Context, excludeStdout bool, dir, name string, args ...string,
) error {
	cmd := exec.CommandContext(ctx, name, args...)

	if !excludeStdout {
		_, err := MultiPrinter.Start()
		if err != nil {
			return errors.Wrap(err, "failed to start multiprinter")
		}

		decoratedWriter := NewPackageDecoratedWriter(MultiPrinter.Writer, "dpkgo")
		cmd.Stdout = decoratedWriter
		cmd.Stderr = decoratedWriter
	}

	if dir != "" {
		cmd.Dir = dir
	}

	logger.Debug("executing command", "command", name, "args", args, "dir", dir)

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		logger.Error("command execution failed",
			"command", name,
			"args", args,
			"dir", dir,
			"duration", duration,
			"error", err)

		return errors.Wrapf(err, "failed to execute command %s", name)
	}

	logger.Debug("command execution completed",
		"command", name,
		"duration", duration)

	return nil
}

func normalizeScriptContent(script string) string {
	lines := strings.Split(script, "\n")

	var (
		normalized     []string
		currentCommand strings.Builder
	)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			if currentCommand.Len() > 0 {
				normalized = append(normalized, currentCommand.String())
				currentCommand.Reset()
			}

			continue
		}

		if strings.HasSuffix(trimmed, "\\") {
			commandPart := strings.TrimSuffix(trimmed, "\\")
			commandPart = strings.TrimRight(commandPart, " ")

			if currentCommand.Len() > 0 {
				currentCommand.WriteString(" ")
				currentCommand.WriteString(commandPart)
			} else {
				currentCommand.WriteString(commandPart)
			}

			continue
		}

		if currentCommand.Len() > 0 {
			currentCommand.WriteString(" ")
			currentCommand.WriteString(trimmed)
			normalized = append(normalized, currentCommand.String())
			currentCommand.Reset()
		} else {
			normalized = append(normalized, trimmed)
		}
	}

	if currentCommand.Len() > 0 {
		normalized = append(normalized, currentCommand.String())
	}

	return strings.Join(normalized, "\n")
}

func logScriptContent(cmds, label string) {
	_, err := MultiPrinter.Start()
	if err != nil {
		return
	}

	timestamp := time.Now().Format(timestampFormat)
	headerLine := pterm.Sprintf("%s %s %s %s\n",
		pterm.FgGray.Sprint(timestamp),
		pterm.NewStyle(pterm.FgBlue, pterm.Bold).Sprint("DEBUG "), pterm.FgBlue.Sprintf("[%s]", label),
		"script content:",
	)
	_, _ = MultiPrinter.Writer.Write([]byte(headerLine))

	normalizedScript := normalizeScriptContent(cmds)
	lines := strings.SplitSeq(normalizedScript, "\n")

	for line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			timestamp := time.Now().Format(timestampFormat)
			scriptLine := pterm.Sprintf("%s %s %s   %s\n",
				pterm.FgGray.Sprint(timestamp),
				pterm.NewStyle(pterm.FgBlue, pterm.Bold).Sprint("DEBUG "), pterm.FgBlue.Sprintf("[%s]", label),
				trimmed,
			)
			_, _ = MultiPrinter.Writer.Write([]byte(scriptLine))
		}
	}
}

// LintScript parses a maintainer script with the POSIX/bash shell grammar
// without running it, surfacing a syntax error before the script is ever
// written into the admin database or executed (spec.md §4.B).
func LintScript(cmds string) error {
	_, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(cmds), "")
	if err != nil {
		return errors.Wrap(err, "failed to parse maintainer script")
	}

	return nil
}

// RunMaintainerScript executes a preinst/postinst/prerm/postrm script (or
// any other hook body) with WPKG_ROOTDIR/WPKG_INSTDIR/WPKG_ADMINDIR set
// in its environment, labeled packageName in the interleaved log output.
// args, if given, become the script's positional parameters ($1, $2,
// ...) the way dpkg passes "remove"/"purge"/"configure <old-version>"
// to prerm/postrm/postinst.
func RunMaintainerScript(ctx context.Context, cmds, packageName string, env ScriptEnv, args ...string) error {
	start := time.Now()

	if packageName != "" {
		logger.Info("executing maintainer script", "package", packageName)
	} else {
		logger.Info("executing maintainer script")
	}

	if cmds != "" {
		logScriptContent(cmds, packageNameOrDefault(packageName))
	}

	script, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(cmds), "")
	if err != nil {
		return errors.Wrap(err, "failed to parse maintainer script")
	}

	_, err = MultiPrinter.Start()
	if err != nil {
		return errors.Wrap(err, "failed to start multiprinter")
	}

	writer := MultiPrinter.Writer
	if packageName != "" {
		writer = NewPackageDecoratedWriter(MultiPrinter.Writer, packageName)
	}

	environ := append(append([]string{}, os.Environ()...), env.asAssignments()...)

	runner, err := interp.New(
		interp.Env(expand.ListEnviron(environ...)),
		interp.StdIO(nil, writer, writer),
		interp.Params(args...),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create script runner")
	}

	logger.Debug("starting maintainer script execution")

	err = runner.Run(ctx, script)
	duration := time.Since(start)

	if err != nil {
		logger.Error("maintainer script execution failed",
			"error", err,
			"duration", duration,
			"package", packageName)

		return errors.Wrap(err, "maintainer script execution failed")
	}

	logger.Info("maintainer script execution completed successfully",
		"duration", duration,
		"package", packageName)

	return nil
}

func packageNameOrDefault(packageName string) string {
	if packageName == "" {
		return "dpkgo"
	}

	return packageName
}
