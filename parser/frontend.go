package parser

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/teranos/cxxbind/errors"
)

// Frontend compiles a C++ translation unit and returns its declarations as
// GCC-XML
type Frontend interface {
	Run(ctx context.Context, header string, source []byte) ([]byte, error)
}

// Source is the translation unit compiled for a header: the header itself
// followed by the tail aggregate
func Source(header, tail string) []byte {
	var b bytes.Buffer
	b.WriteString("#include \"")
	b.WriteString(header)
	b.WriteString("\"\n")
	if tail != "" {
		b.WriteString(tail)
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// Tool runs castxml or gccxml as a child process
type Tool struct {
	Command    string
	Flags      []string
	OutputFlag string
	Includes   []string
	Defines    []string
	Timeout    time.Duration
	Logger     *zap.SugaredLogger
}

// NewTool builds a Tool. flags is a shell-quoted argument string.
func NewTool(command, flags, outputFlag string, includes, defines []string, timeout time.Duration, logger *zap.SugaredLogger) (*Tool, error) {
	args, err := shellquote.Split(flags)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "invalid parser.flags %q", flags),
			"balance the quotes in parser.flags (or CXXBIND_PARSER_FLAGS)")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Tool{
		Command:    command,
		Flags:      args,
		OutputFlag: outputFlag,
		Includes:   includes,
		Defines:    defines,
		Timeout:    timeout,
		Logger:     logger,
	}, nil
}

// Args returns the command line used to compile source into output
func (t *Tool) Args(source, output string) []string {
	args := append([]string(nil), t.Flags...)
	for _, inc := range t.Includes {
		args = append(args, "-I"+inc)
	}
	for _, def := range t.Defines {
		args = append(args, "-D"+def)
	}
	args = append(args, source)
	switch {
	case t.OutputFlag == "":
		args = append(args, "-o", output)
	case strings.HasSuffix(t.OutputFlag, "="):
		args = append(args, t.OutputFlag+output)
	default:
		args = append(args, t.OutputFlag, output)
	}
	return args
}

func (t *Tool) Run(ctx context.Context, header string, source []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "cxxbind-*")
	if err != nil {
		return nil, errors.Wrap(err, "create front-end work directory")
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "tmp.cpp")
	out := filepath.Join(dir, "tmp.xml")
	if err := os.WriteFile(src, source, 0o644); err != nil {
		return nil, errors.Wrap(err, "write front-end source")
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	args := t.Args(src, out)
	t.Logger.Debugw("Running front end", "command", t.Command+" "+shellquote.Join(args...), "header", header)

	cmd := exec.CommandContext(ctx, t.Command, args...)
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr
	start := time.Now()
	if err := cmd.Run(); err != nil {
		wrapped := errors.WrapParse(err, header)
		if ctx.Err() == context.DeadlineExceeded {
			wrapped = errors.WithHint(wrapped, "raise parser.timeout_seconds or set it to 0")
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			wrapped = errors.WithDetail(wrapped, msg)
		}
		if errors.Is(err, exec.ErrNotFound) {
			wrapped = errors.WithHintf(wrapped, "install %s or set parser.command", t.Command)
		}
		return nil, wrapped
	}
	t.Logger.Debugw("Front end finished", "header", header, "duration_ms", time.Since(start).Milliseconds())

	xml, err := os.ReadFile(out)
	if err != nil {
		return nil, errors.WrapParse(errors.Wrap(err, "front end wrote no output"), header)
	}
	return xml, nil
}
