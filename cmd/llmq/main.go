// Command llmq issues a single query against a configured provider and
// prints the result. It exercises all four query operations: response,
// stream, object, and block.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aschepis/backscratcher/llmwrap/config"
	"github.com/aschepis/backscratcher/llmwrap/llm"
	llmlogger "github.com/aschepis/backscratcher/llmwrap/logger"
)

// argList collects repeated -arg NAME=value flags.
type argList []string

func (a *argList) String() string {
	return strings.Join(*a, ",")
}

func (a *argList) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("expected NAME=value, got %q", value)
	}
	*a = append(*a, value)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var extraArgs argList
	var (
		op         = flag.String("op", "response", "Query operation: response, stream, object, or block")
		blockType  = flag.String("block-type", "", "Fenced block type to extract (op=block)")
		configPath = flag.String("config", config.GetConfigPath(), "Path to config file")
		logFile    = flag.String("logfile", "", "Path to log file. If not set, logs to stderr")
		pretty     = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
	)
	flag.Var(&extraArgs, "arg", "Additional NAME=value argument; uppercase names become prompt sections, lowercase go to the provider API (repeatable)")
	flag.Parse()

	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}

	// Best effort: credentials often live in a local .env during development.
	_ = godotenv.Load()

	logger, err := llmlogger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	wrapper, err := config.NewWrapper(cfg, logger)
	if err != nil {
		return err
	}

	args, err := buildArgs(flag.Args(), extraArgs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *op {
	case "response":
		text, err := wrapper.QueryResponse(ctx, args)
		if err != nil {
			return err
		}
		fmt.Println(text)

	case "stream":
		stream, err := wrapper.QueryStream(ctx, args)
		if err != nil {
			return err
		}
		defer stream.Close() //nolint:errcheck // drained below
		for stream.Next() {
			fmt.Print(stream.Chunk())
		}
		fmt.Println()
		if err := stream.Err(); err != nil {
			return err
		}

	case "object":
		var target map[string]any
		if err := wrapper.QueryObject(ctx, &target, args); err != nil {
			return err
		}
		out, err := json.MarshalIndent(target, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

	case "block":
		if *blockType == "" {
			return fmt.Errorf("--block-type is required for op=block")
		}
		text, err := wrapper.QueryBlock(ctx, *blockType, args)
		if err != nil {
			return err
		}
		fmt.Println(text)

	default:
		return fmt.Errorf("unknown operation %q (want response, stream, object, or block)", *op)
	}

	return nil
}

// buildArgs assembles the query arguments. Positional arguments join into the
// PROMPT; "-" alone reads the prompt from stdin. Extra NAME=value pairs are
// passed through and classified by name.
func buildArgs(positional []string, extra argList) (llm.Args, error) {
	prompt := strings.Join(positional, " ")
	if prompt == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt from stdin: %w", err)
		}
		prompt = string(data)
	}

	args := llm.Args{}
	if prompt != "" {
		args["PROMPT"] = prompt
	}
	for _, pair := range extra {
		name, value, _ := strings.Cut(pair, "=")
		if name == "" {
			return nil, fmt.Errorf("argument name missing in %q", pair)
		}
		args[name] = parseArgValue(value)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("no prompt given (pass text, or - for stdin)")
	}
	return args, nil
}

// parseArgValue decodes numbers, booleans, and JSON literals so API arguments
// like temperature=0.7 arrive typed; everything else stays a string.
func parseArgValue(value string) any {
	var decoded any
	if err := json.Unmarshal([]byte(value), &decoded); err == nil {
		return decoded
	}
	return value
}
