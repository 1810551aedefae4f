// Command protobridge converts protobuf binary payloads to and from JSON
// value trees using a compiled descriptor set, without generated code.
//
// Usage:
//
//	protobridge -descriptor-set app.pb -type game.PlayerInfo -mode decode < payload.bin
//	protobridge -descriptor-set app.pb -type game.PlayerInfo -mode encode < value.json > payload.bin
//	protobridge -descriptor-set app.pb -type game.PlayerInfo -mode format -format-mode short < payload.bin
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	_ "go.uber.org/automaxprocs"

	"github.com/lk2023060901/proto-bridge-go/internal/bridge"
	"github.com/lk2023060901/proto-bridge-go/internal/json"
	"github.com/lk2023060901/proto-bridge-go/internal/schema"
	"github.com/lk2023060901/proto-bridge-go/pkg/log"
	zviper "github.com/lk2023060901/proto-bridge-go/pkg/util/viper"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "protobridge:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath    = flag.String("config", "", "config file path (overrides ./config.yaml and PROTOBRIDGE_CONFIG_FILE_PATH)")
		descriptorSet = flag.String("descriptor-set", "", "comma-separated descriptor set files (protoc --descriptor_set_out)")
		typeName      = flag.String("type", "", "fully-qualified message type name, e.g. game.PlayerInfo")
		mode          = flag.String("mode", "decode", "operation: encode | decode | format")
		formatMode    = flag.String("format-mode", "debug", "text rendering for -mode format: debug | short | utf8")
		maxDepth      = flag.Int("max-depth", 0, "message nesting depth limit (0 = default)")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer log.Sync()

	if *descriptorSet == "" {
		return fmt.Errorf("missing -descriptor-set")
	}
	if *typeName == "" {
		return fmt.Errorf("missing -type")
	}

	ctx := context.Background()
	registry := schema.NewFilesRegistry()
	for _, path := range strings.Split(*descriptorSet, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if err := registry.LoadSet(ctx, path); err != nil {
			return err
		}
	}

	b, err := bridge.New(bridge.Options{
		Registry: registry,
		MaxDepth: *maxDepth,
	})
	if err != nil {
		return err
	}

	switch *mode {
	case "encode":
		return runEncode(b, *typeName, os.Stdin, os.Stdout)
	case "decode":
		return runDecode(b, *typeName, os.Stdin, os.Stdout)
	case "format":
		return runFormat(b, *typeName, bridge.FormatMode(*formatMode), os.Stdin, os.Stdout)
	default:
		return fmt.Errorf("unknown mode %q, want encode, decode or format", *mode)
	}
}

// runEncode reads a JSON object from in and writes the binary payload to out.
func runEncode(b *bridge.Bridge, typeName string, in io.Reader, out io.Writer) error {
	var value map[string]any
	if err := json.NewDecoder(in).Decode(&value); err != nil {
		return fmt.Errorf("read value: %w", err)
	}

	data, err := b.Serialize(typeName, value)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// runDecode reads a binary payload from in and writes the JSON value tree to out.
func runDecode(b *bridge.Bridge, typeName string, in io.Reader, out io.Writer) error {
	value, err := b.DeserializeFrom(typeName, in)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("render value: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// runFormat reads a binary payload from in and writes the rendered text to out.
func runFormat(b *bridge.Bridge, typeName string, mode bridge.FormatMode, in io.Reader, out io.Writer) error {
	text, err := b.FormatFrom(typeName, in, mode)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, text)
	return err
}

// loadConfig resolves the config file path and loads it.
// Priority: ./config.yaml, then PROTOBRIDGE_CONFIG_FILE_PATH, then -config.
// A missing default file is tolerated; an explicitly named file must exist.
func loadConfig(flagPath string) (*zviper.Config, error) {
	configPath := "./config.yaml"
	explicit := false

	if envPath := os.Getenv("PROTOBRIDGE_CONFIG_FILE_PATH"); envPath != "" {
		configPath = envPath
		explicit = true
	}
	if flagPath != "" {
		configPath = flagPath
		explicit = true
	}

	cfg := zviper.New()
	if err := cfg.LoadFile(configPath); err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config file %q: %w", configPath, err)
	}
	return cfg, nil
}

// initLogging configures the process-wide logger from the "log" config section.
func initLogging(cfg *zviper.Config) error {
	logCfg := &log.Config{
		Level:  "info",
		Format: "text",
		Stdout: false,
	}
	if err := cfg.UnmarshalKey("log", logCfg); err != nil {
		return fmt.Errorf("parse log config: %w", err)
	}

	logger, props, err := log.InitLogger(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log.ReplaceGlobals(logger, props)
	return nil
}
