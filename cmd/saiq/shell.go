package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/KevoDB/sai/pkg/common/log"
	"github.com/KevoDB/sai/pkg/keyrange"
	"github.com/KevoDB/sai/pkg/primarykey"
	"github.com/KevoDB/sai/pkg/telemetry"
)

// errExit is returned by Execute when the session should end.
var errExit = errors.New("exit requested")

// Shell holds named key ranges and runs commands against them.
type Shell struct {
	factory   *primarykey.Factory
	rangeHint int
	ranges    map[string][]*primarykey.PrimaryKey

	tel     telemetry.Telemetry
	logger  log.Logger
	metrics keyrange.Metrics
	out     io.Writer
}

// NewShell creates a shell writing results to out.
func NewShell(factory *primarykey.Factory, rangeHint int, tel telemetry.Telemetry, logger log.Logger, out io.Writer) *Shell {
	if tel == nil {
		tel = telemetry.NewNoop()
	}
	return &Shell{
		factory:   factory,
		rangeHint: rangeHint,
		ranges:    make(map[string][]*primarykey.PrimaryKey),
		tel:       tel,
		logger:    logger.WithField("component", telemetry.ComponentShell),
		metrics:   keyrange.NewMetrics(tel),
		out:       out,
	}
}

// Execute runs one command line.
func (s *Shell) Execute(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToUpper(parts[0])
	if strings.HasPrefix(cmd, ".") {
		switch strings.ToLower(cmd) {
		case ".help":
			fmt.Fprint(s.out, helpText)
			return nil
		case ".exit", ".quit":
			return errExit
		default:
			return fmt.Errorf("unknown command: %s", parts[0])
		}
	}

	switch cmd {
	case "RANGE":
		return s.cmdRange(parts[1:])
	case "LOAD":
		return s.cmdLoad(parts[1:])
	case "RANGES":
		s.cmdRanges()
		return nil
	case "DROP":
		return s.cmdDrop(parts[1:])
	case "UNION":
		return s.cmdUnion(ctx, parts[1:])
	default:
		return fmt.Errorf("unknown command: %s", parts[0])
	}
}

func (s *Shell) cmdRange(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: RANGE name [key...]")
	}

	keys := make([]*primarykey.PrimaryKey, 0, len(args)-1)
	for _, text := range args[1:] {
		key, err := s.factory.ParseKey(text)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}

	s.store(args[0], keyrange.SortKeys(keys))
	return nil
}

func (s *Shell) cmdLoad(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: LOAD name file")
	}

	keys, err := loadKeyFile(args[1], s.factory)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[1], err)
	}

	s.logger.WithFields(map[string]interface{}{"range": args[0], "file": args[1]}).Debug("Loaded %d keys", len(keys))
	s.store(args[0], keys)
	return nil
}

func (s *Shell) store(name string, keys []*primarykey.PrimaryKey) {
	s.ranges[name] = keys
	fmt.Fprintf(s.out, "%s: %s\n", name, describe(keys))
}

func (s *Shell) cmdRanges() {
	names := s.names()
	if len(names) == 0 {
		fmt.Fprintln(s.out, "No ranges defined")
		return
	}
	for _, name := range names {
		fmt.Fprintf(s.out, "%s: %s\n", name, describe(s.ranges[name]))
	}
}

func (s *Shell) cmdDrop(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: DROP name")
	}
	if _, ok := s.ranges[args[0]]; !ok {
		return fmt.Errorf("no such range: %s", args[0])
	}
	delete(s.ranges, args[0])
	fmt.Fprintf(s.out, "Dropped %s\n", args[0])
	return nil
}

// cmdUnion merges the named ranges, or every range when none are named,
// optionally skipping ahead to a key first.
func (s *Shell) cmdUnion(ctx context.Context, args []string) error {
	var skipTo *primarykey.PrimaryKey
	for i, arg := range args {
		if strings.ToUpper(arg) != "SKIP" {
			continue
		}
		if i != len(args)-2 {
			return errors.New("usage: UNION [name...] [SKIP key]")
		}
		key, err := s.factory.ParseKey(args[i+1])
		if err != nil {
			return err
		}
		skipTo = key
		args = args[:i]
		break
	}

	names := args
	if len(names) == 0 {
		names = s.names()
	}
	for _, name := range names {
		if _, ok := s.ranges[name]; !ok {
			return fmt.Errorf("no such range: %s", name)
		}
	}

	start := time.Now()
	ctx, span := s.tel.StartSpan(ctx, "saiq.union",
		attribute.String(telemetry.AttrComponent, telemetry.ComponentShell),
		attribute.Int(telemetry.AttrRangeCount, len(names)),
	)
	defer span.End()

	builder := keyrange.NewUnionBuilder(max(s.rangeHint, len(names)),
		keyrange.WithLogger(s.logger),
		keyrange.WithMetrics(s.metrics),
	)
	for _, name := range names {
		builder.Add(keyrange.NewListIterator(s.ranges[name]))
	}
	it := builder.Build()
	defer it.Close()

	if skipTo != nil {
		it.SkipTo(skipTo)
	}

	produced := 0
	for it.HasNext() {
		fmt.Fprintln(s.out, it.Next())
		produced++
	}

	fmt.Fprintf(s.out, "(%d keys from %d ranges)\n", produced, len(names))
	span.SetAttributes(attribute.Int("keys", produced))
	span.SetStatus(codes.Ok, "")

	telemetry.RecordDuration(ctx, s.tel, "sai.shell.query.duration", start,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentShell),
		attribute.String(telemetry.AttrOperationType, telemetry.OpTypeQuery),
	)
	return nil
}

func (s *Shell) names() []string {
	names := make([]string, 0, len(s.ranges))
	for name := range s.ranges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func describe(keys []*primarykey.PrimaryKey) string {
	if len(keys) == 0 {
		return "0 keys"
	}
	return fmt.Sprintf("%d keys [%s .. %s]", len(keys), keys[0], keys[len(keys)-1])
}
